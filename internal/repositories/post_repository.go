package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID string, publicOnly bool, skip, limit int64) ([]models.Post, error)
	GetFeed(ctx context.Context, userID string, friendIDs []string, skip, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, req *models.UpdatePostRequest) error
	SetPrivacy(ctx context.Context, id, privacy string) error
	DeletePost(ctx context.Context, id string) error
	PostExists(ctx context.Context, id string) (bool, error)
	LoadSubject(ctx context.Context, kind notification.EventKind, ref notification.SubjectRef) (*notification.Subject, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	users      *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		collection: db.Collection("posts"),
		users:      db.Collection("users"),
	}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Privacy == "" {
		post.Privacy = models.PrivacyFriends
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByUserID retrieves the timeline of one user, newest first.
// publicOnly leaves friends-only posts out.
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID string, publicOnly bool, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{"creator": userID}
	if publicOnly {
		filter["privacy"] = models.PrivacyPublic
	}
	return r.find(ctx, filter, skip, limit)
}

// GetFeed returns public posts, the user's own posts and posts of friends
func (r *MongoPostRepository) GetFeed(ctx context.Context, userID string, friendIDs []string, skip, limit int64) ([]models.Post, error) {
	visible := append([]string{userID}, friendIDs...)
	filter := bson.M{"$or": bson.A{
		bson.M{"privacy": models.PrivacyPublic},
		bson.M{"creator": bson.M{"$in": visible}},
	}}
	return r.find(ctx, filter, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Post, error) {
	posts := []models.Post{}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost updates content and image of a post and stamps it as edited
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, req *models.UpdatePostRequest) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	set := bson.M{"edited": now, "updated_at": now}
	if req.Content != "" {
		set["content"] = req.Content
	}
	if req.PostImage != "" {
		set["post_image"] = req.PostImage
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// SetPrivacy changes who can see a post
func (r *MongoPostRepository) SetPrivacy(ctx context.Context, id, privacy string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"privacy": privacy, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// PostExists reports whether a post with the given id is stored. Malformed
// ids are reported as missing.
func (r *MongoPostRepository) PostExists(ctx context.Context, id string) (bool, error) {
	objID, err := objectID(id)
	if err != nil {
		return false, nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadSubject reads the post, comment or reply an event acted on together
// with the distinct users behind it, in the order they first acted.
func (r *MongoPostRepository) LoadSubject(ctx context.Context, kind notification.EventKind, ref notification.SubjectRef) (*notification.Subject, error) {
	post, err := r.GetPostByID(ctx, ref.PostID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrInvalidID) {
			return nil, fmt.Errorf("%w: post %s", notification.ErrSubjectNotFound, ref.PostID)
		}
		return nil, err
	}

	subject := &notification.Subject{PostID: post.ID.Hex()}
	var actorIDs []string

	switch kind {
	case notification.EventPostLike:
		subject.Key, subject.OwnerID, subject.Content = post.ID.Hex(), post.Creator, post.Content
		actorIDs = post.Likes
	case notification.EventPostComment:
		subject.Key, subject.OwnerID, subject.Content = post.ID.Hex(), post.Creator, post.Content
		for _, c := range post.Comments {
			actorIDs = append(actorIDs, c.User)
		}
	case notification.EventCommentLike, notification.EventCommentReply, notification.EventReplyLike:
		comment, ok := post.FindComment(ref.CommentID)
		if !ok {
			return nil, fmt.Errorf("%w: comment %s", notification.ErrSubjectNotFound, ref.CommentID)
		}
		subject.Key, subject.OwnerID, subject.Content = comment.ID.Hex(), comment.User, comment.Content
		switch kind {
		case notification.EventCommentLike:
			actorIDs = comment.Likes
		case notification.EventCommentReply:
			for _, rp := range comment.Replies {
				actorIDs = append(actorIDs, rp.User)
			}
		default:
			reply, ok := comment.FindReply(ref.ReplyID)
			if !ok {
				return nil, fmt.Errorf("%w: reply %s", notification.ErrSubjectNotFound, ref.ReplyID)
			}
			subject.Key, subject.OwnerID, subject.Content = reply.ID.Hex(), reply.User, reply.Content
			actorIDs = reply.Likes
		}
	default:
		return nil, fmt.Errorf("%w: %q", notification.ErrInvalidActionForAlertType, kind)
	}

	subject.Actors, err = r.actors(ctx, distinct(actorIDs))
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// actors resolves user ids to names keeping the order of ids. Users that no
// longer exist are skipped.
func (r *MongoPostRepository) actors(ctx context.Context, ids []string) ([]notification.Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	projection := options.Find().SetProjection(bson.M{"first_name": 1, "last_name": 1})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, projection)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID.Hex()] = u
	}

	out := make([]notification.Actor, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, notification.Actor{UserID: id, FirstName: u.FirstName, LastName: u.LastName})
		}
	}
	return out, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
