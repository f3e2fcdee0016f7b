package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CommentRepository defines operations on comments and replies embedded in posts
type CommentRepository interface {
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	UpdateComment(ctx context.Context, postID, commentID, content string) error
	DeleteComment(ctx context.Context, postID, commentID string) error
	AddReply(ctx context.Context, postID, commentID string, reply *models.Reply) error
	UpdateReply(ctx context.Context, postID, commentID, replyID, content string) error
	DeleteReply(ctx context.Context, postID, commentID, replyID string) error
}

// MongoCommentRepository implements CommentRepository on the posts collection
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("posts")}
}

// AddComment appends a comment to a post
func (r *MongoCommentRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	pid, err := objectID(postID)
	if err != nil {
		return err
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	if comment.Likes == nil {
		comment.Likes = []string{}
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  touch(),
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// UpdateComment replaces the text of a comment
func (r *MongoCommentRepository) UpdateComment(ctx context.Context, postID, commentID, content string) error {
	filter, err := commentFilter(postID, commentID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"comments.$.content": content,
		"comments.$.edited":  time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// DeleteComment removes a comment and its replies from a post
func (r *MongoCommentRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	filter, err := commentFilter(postID, commentID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": filter["comments._id"]}},
		"$set":  touch(),
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// AddReply appends a reply to a comment
func (r *MongoCommentRepository) AddReply(ctx context.Context, postID, commentID string, reply *models.Reply) error {
	filter, err := commentFilter(postID, commentID)
	if err != nil {
		return err
	}
	reply.ID = primitive.NewObjectID()
	reply.CreatedAt = time.Now()
	if reply.Likes == nil {
		reply.Likes = []string{}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"comments.$.replies": reply},
		"$set":  touch(),
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// UpdateReply replaces the text of a reply
func (r *MongoCommentRepository) UpdateReply(ctx context.Context, postID, commentID, replyID, content string) error {
	filter, opts, err := replyFilter(postID, commentID, replyID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"comments.$[c].replies.$[r].content": content,
		"comments.$[c].replies.$[r].edited":  time.Now(),
	}}, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrReplyNotFound
	}
	return nil
}

// DeleteReply removes a reply from its comment
func (r *MongoCommentRepository) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	filter, _, err := replyFilter(postID, commentID, replyID)
	if err != nil {
		return err
	}
	delete(filter, "comments.replies._id")
	rid, _ := objectID(replyID)

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"comments.$.replies": bson.M{"_id": rid}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrReplyNotFound
	}
	return nil
}
