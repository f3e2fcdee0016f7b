package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendRequests is the pending-request box embedded in a User
type FriendRequests struct {
	Count   int             `json:"count" bson:"count"`
	Content []FriendRequest `json:"content" bson:"content"`
}

// FriendRequest is a pending request from UserID
type FriendRequest struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	UserID string             `json:"user_id" bson:"user_id"`
	Date   time.Time          `json:"date" bson:"date"`
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	FriendID string `json:"friend_id" validate:"required,len=24,hexadecimal"`
}

// PendingRequest is a request enriched with the sender's card
type PendingRequest struct {
	ID   string      `json:"id"`
	Date time.Time   `json:"date"`
	From UserCompact `json:"from"`
}
