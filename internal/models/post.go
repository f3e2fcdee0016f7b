package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PrivacyFriends = "friends"
	PrivacyPublic  = "public"
)

// Post represents a social media post stored in MongoDB. Likes hold user
// ids in the order they were added; comments and their replies are embedded.
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Creator   string             `json:"creator" bson:"creator"`
	Content   string             `json:"content" bson:"content"`
	PostImage string             `json:"post_image,omitempty" bson:"post_image,omitempty"`
	Privacy   string             `json:"privacy" bson:"privacy"`
	Likes     []string           `json:"likes" bson:"likes"`
	Comments  []Comment          `json:"comments" bson:"comments"`
	Edited    *time.Time         `json:"edited,omitempty" bson:"edited,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// FindComment returns the comment with the given hex id
func (p *Post) FindComment(commentID string) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID.Hex() == commentID {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content   string `json:"content" validate:"required_without=PostImage,max=2000"`
	PostImage string `json:"post_image,omitempty" validate:"omitempty,url"`
	Privacy   string `json:"privacy,omitempty" validate:"omitempty,oneof=friends public"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content   string `json:"content,omitempty" validate:"omitempty,max=2000"`
	PostImage string `json:"post_image,omitempty" validate:"omitempty,url"`
}

type PrivacyRequest struct {
	Privacy string `json:"privacy" validate:"required,oneof=friends public"`
}
