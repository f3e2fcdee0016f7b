package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepository stores each user's notification ledger inside
// the user document. It implements notification.LedgerStore.
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("users")}
}

// LoadLedger reads the ledger of userID
func (r *MongoNotificationRepository) LoadLedger(ctx context.Context, userID string) (*notification.Ledger, error) {
	objID, err := objectID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrRecipientNotFound, err)
	}

	var doc struct {
		Notifications models.NotificationLedger `bson:"notifications"`
	}
	opts := options.FindOne().SetProjection(bson.M{"notifications": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", notification.ErrRecipientNotFound, userID)
		}
		return nil, err
	}
	return doc.Notifications.ToLedger(), nil
}

// SaveLedger replaces the stored ledger in a single-document update
func (r *MongoNotificationRepository) SaveLedger(ctx context.Context, userID string, ledger *notification.Ledger) error {
	objID, err := objectID(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrRecipientNotFound, err)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"notifications": models.NewNotificationLedger(ledger)},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", notification.ErrRecipientNotFound, userID)
	}
	return nil
}
