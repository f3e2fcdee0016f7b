package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in a Post
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	User      string             `json:"user" bson:"user"`
	Content   string             `json:"content" bson:"content"`
	PostImage string             `json:"post_image,omitempty" bson:"post_image,omitempty"`
	Likes     []string           `json:"likes" bson:"likes"`
	Replies   []Reply            `json:"replies" bson:"replies"`
	Edited    *time.Time         `json:"edited,omitempty" bson:"edited,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// FindReply returns the reply with the given hex id
func (c *Comment) FindReply(replyID string) (*Reply, bool) {
	for i := range c.Replies {
		if c.Replies[i].ID.Hex() == replyID {
			return &c.Replies[i], true
		}
	}
	return nil, false
}

// Reply is embedded in a Comment
type Reply struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	User      string             `json:"user" bson:"user"`
	Content   string             `json:"content" bson:"content"`
	PostImage string             `json:"post_image,omitempty" bson:"post_image,omitempty"`
	Likes     []string           `json:"likes" bson:"likes"`
	Edited    *time.Time         `json:"edited,omitempty" bson:"edited,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateCommentRequest is used for both comments and replies
type CreateCommentRequest struct {
	Content   string `json:"content" validate:"required_without=PostImage,max=1000"`
	PostImage string `json:"post_image,omitempty" validate:"omitempty,url"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
