package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LikeRepository defines like operations on posts, comments and replies.
// Likes are user ids embedded in the liked document.
type LikeRepository interface {
	LikePost(ctx context.Context, postID, userID string) error
	UnlikePost(ctx context.Context, postID, userID string) error
	LikeComment(ctx context.Context, postID, commentID, userID string) error
	UnlikeComment(ctx context.Context, postID, commentID, userID string) error
	LikeReply(ctx context.Context, postID, commentID, replyID, userID string) error
	UnlikeReply(ctx context.Context, postID, commentID, replyID, userID string) error
}

// MongoLikeRepository implements LikeRepository on the posts collection
type MongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{collection: db.Collection("posts")}
}

// LikePost adds userID to the likes of a post
func (r *MongoLikeRepository) LikePost(ctx context.Context, postID, userID string) error {
	return r.updatePost(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}}, ErrPostNotFound, ErrAlreadyLiked)
}

// UnlikePost removes userID from the likes of a post
func (r *MongoLikeRepository) UnlikePost(ctx context.Context, postID, userID string) error {
	return r.updatePost(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}}, ErrPostNotFound, ErrNotLiked)
}

func (r *MongoLikeRepository) updatePost(ctx context.Context, postID string, update bson.M, notFound, unchanged error) error {
	objID, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	return updateResult(res, notFound, unchanged)
}

// LikeComment adds userID to the likes of a comment
func (r *MongoLikeRepository) LikeComment(ctx context.Context, postID, commentID, userID string) error {
	return r.updateComment(ctx, postID, commentID, bson.M{"$addToSet": bson.M{"comments.$.likes": userID}}, ErrAlreadyLiked)
}

// UnlikeComment removes userID from the likes of a comment
func (r *MongoLikeRepository) UnlikeComment(ctx context.Context, postID, commentID, userID string) error {
	return r.updateComment(ctx, postID, commentID, bson.M{"$pull": bson.M{"comments.$.likes": userID}}, ErrNotLiked)
}

func (r *MongoLikeRepository) updateComment(ctx context.Context, postID, commentID string, update bson.M, unchanged error) error {
	filter, err := commentFilter(postID, commentID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return updateResult(res, ErrCommentNotFound, unchanged)
}

// LikeReply adds userID to the likes of a reply
func (r *MongoLikeRepository) LikeReply(ctx context.Context, postID, commentID, replyID, userID string) error {
	return r.updateReply(ctx, postID, commentID, replyID, "$addToSet", userID, ErrAlreadyLiked)
}

// UnlikeReply removes userID from the likes of a reply
func (r *MongoLikeRepository) UnlikeReply(ctx context.Context, postID, commentID, replyID, userID string) error {
	return r.updateReply(ctx, postID, commentID, replyID, "$pull", userID, ErrNotLiked)
}

func (r *MongoLikeRepository) updateReply(ctx context.Context, postID, commentID, replyID, op, userID string, unchanged error) error {
	filter, opts, err := replyFilter(postID, commentID, replyID)
	if err != nil {
		return err
	}
	update := bson.M{op: bson.M{"comments.$[c].replies.$[r].likes": userID}}
	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}
	return updateResult(res, ErrReplyNotFound, unchanged)
}

func updateResult(res *mongo.UpdateResult, notFound, unchanged error) error {
	if res.MatchedCount == 0 {
		return notFound
	}
	if res.ModifiedCount == 0 {
		return unchanged
	}
	return nil
}

func commentFilter(postID, commentID string) (bson.M, error) {
	pid, err := objectID(postID)
	if err != nil {
		return nil, err
	}
	cid, err := objectID(commentID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": pid, "comments._id": cid}, nil
}

// replyFilter matches a post holding the reply and binds the c and r array
// filters used in positional updates.
func replyFilter(postID, commentID, replyID string) (bson.M, *options.UpdateOptions, error) {
	filter, err := commentFilter(postID, commentID)
	if err != nil {
		return nil, nil, err
	}
	rid, err := objectID(replyID)
	if err != nil {
		return nil, nil, err
	}
	filter["comments.replies._id"] = rid
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"c._id": filter["comments._id"]},
			bson.M{"r._id": rid},
		},
	})
	return filter, opts, nil
}

func touch() bson.M {
	return bson.M{"updated_at": time.Now()}
}
