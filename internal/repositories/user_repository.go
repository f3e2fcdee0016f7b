package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for profile data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) error
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error)
	ResolveIdentity(ctx context.Context, id string) (*notification.Identity, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser stores a new profile with empty request, message and
// notification boxes
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friends == nil {
		user.Friends = []string{}
	}
	if user.Requests.Content == nil {
		user.Requests.Content = []models.FriendRequest{}
	}
	if user.Messages.Content == nil {
		user.Messages.Content = []string{}
	}
	if user.Notifications.Content == nil {
		user.Notifications.Content = []notification.Record{}
	}
	if user.Details.About == "" {
		user.Details.About = "No info"
	}
	if user.Details.Occupation == "" {
		user.Details.Occupation = "No info"
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a profile by its hex id
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs retrieves the profiles that exist among ids
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, compactProjection())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile sets the non-empty fields of req
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	for field, value := range map[string]string{
		"first_name":         req.FirstName,
		"last_name":          req.LastName,
		"profile_image":      req.ProfileImage,
		"banner_image":       req.BannerImage,
		"details.about":      req.About,
		"details.gender":     req.Gender,
		"details.occupation": req.Occupation,
	} {
		if value != "" {
			set[field] = value
		}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SearchUsers matches first or last name, case-insensitive
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	users := []models.User{}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"first_name": pattern},
		bson.M{"last_name": pattern},
	}}
	cursor, err := r.collection.Find(ctx, filter, compactProjection().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ResolveIdentity returns the display information of a user
func (r *MongoUserRepository) ResolveIdentity(ctx context.Context, id string) (*notification.Identity, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrRecipientNotFound, err)
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}, options.FindOne().SetProjection(bson.M{
		"first_name": 1, "last_name": 1, "profile_image": 1,
	})).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", notification.ErrRecipientNotFound, id)
		}
		return nil, err
	}
	return &notification.Identity{
		UserID:       id,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		ProfileImage: user.ProfileImage,
	}, nil
}

func compactProjection() *options.FindOptions {
	return options.Find().SetProjection(bson.M{
		"first_name": 1, "last_name": 1, "profile_image": 1, "friends": 1,
	})
}
