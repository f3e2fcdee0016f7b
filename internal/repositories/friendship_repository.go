package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FriendshipRepository defines friend and friend request operations. Both
// live on the user documents.
type FriendshipRepository interface {
	AddRequest(ctx context.Context, toUserID, fromUserID string) (*models.FriendRequest, error)
	RemoveRequest(ctx context.Context, ownerID, fromUserID string) error
	ClearRequestCount(ctx context.Context, userID string) error
	AddFriendship(ctx context.Context, userID, friendID string) error
	RemoveFriendship(ctx context.Context, userID, friendID string) error
}

// MongoFriendshipRepository implements FriendshipRepository for MongoDB
type MongoFriendshipRepository struct {
	collection *mongo.Collection
}

// NewMongoFriendshipRepository creates a new MongoFriendshipRepository
func NewMongoFriendshipRepository(db *mongo.Database) *MongoFriendshipRepository {
	return &MongoFriendshipRepository{collection: db.Collection("users")}
}

// AddRequest files a pending request from fromUserID in toUserID's box and
// bumps the request count. A second request from the same user is refused.
func (r *MongoFriendshipRepository) AddRequest(ctx context.Context, toUserID, fromUserID string) (*models.FriendRequest, error) {
	to, err := objectID(toUserID)
	if err != nil {
		return nil, err
	}

	req := &models.FriendRequest{ID: primitive.NewObjectID(), UserID: fromUserID, Date: time.Now()}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": to, "requests.content.user_id": bson.M{"$ne": fromUserID}},
		bson.M{
			"$push": bson.M{"requests.content": req},
			"$inc":  bson.M{"requests.count": 1},
		},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": to})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrUserNotFound
		}
		return nil, ErrRequestExists
	}
	return req, nil
}

// RemoveRequest drops the pending request from fromUserID out of ownerID's
// box. The request count is decremented but never goes below zero.
func (r *MongoFriendshipRepository) RemoveRequest(ctx context.Context, ownerID, fromUserID string) error {
	owner, err := objectID(ownerID)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": owner, "requests.content.user_id": fromUserID},
		bson.M{"$pull": bson.M{"requests.content": bson.M{"user_id": fromUserID}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRequestNotFound
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": owner, "requests.count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"requests.count": -1}},
	)
	return err
}

// ClearRequestCount zeroes the unseen request count
func (r *MongoFriendshipRepository) ClearRequestCount(ctx context.Context, userID string) error {
	id, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"requests.count": 0}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddFriendship adds each user to the other's friend list
func (r *MongoFriendshipRepository) AddFriendship(ctx context.Context, userID, friendID string) error {
	return r.pair(ctx, userID, friendID, "$addToSet")
}

// RemoveFriendship removes each user from the other's friend list
func (r *MongoFriendshipRepository) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	return r.pair(ctx, userID, friendID, "$pull")
}

func (r *MongoFriendshipRepository) pair(ctx context.Context, userID, friendID, op string) error {
	ids, err := objectIDs([]string{userID, friendID})
	if err != nil {
		return err
	}
	for i, other := range []string{friendID, userID} {
		res, err := r.collection.UpdateOne(ctx, bson.M{"_id": ids[i]}, bson.M{op: bson.M{"friends": other}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}
