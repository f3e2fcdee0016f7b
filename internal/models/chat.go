package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageInbox is embedded in a User: unread message count plus the chat ids
// the user takes part in, most recent first.
type MessageInbox struct {
	Count   int      `json:"count" bson:"count"`
	Content []string `json:"content" bson:"content"`
}

// Chat is a conversation between two or more users
type Chat struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Users     []string           `json:"users" bson:"users"`
	Messages  []ChatMessage      `json:"messages" bson:"messages"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasUser reports whether userID takes part in the chat
func (c *Chat) HasUser(userID string) bool {
	for _, u := range c.Users {
		if u == userID {
			return true
		}
	}
	return false
}

type ChatMessage struct {
	ID      primitive.ObjectID `json:"id" bson:"_id"`
	User    string             `json:"user" bson:"user"`
	Message string             `json:"message" bson:"message"`
	Date    time.Time          `json:"date" bson:"date"`
}

// CreateChatRequest starts a chat, or continues the one with exactly these users
type CreateChatRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=50,dive,len=24,hexadecimal"`
	Message    string   `json:"message" validate:"required,min=1,max=2000"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// ChatMemberRequest names a friend to add to a chat
type ChatMemberRequest struct {
	UserID string `json:"user_id" validate:"required,len=24,hexadecimal"`
}
