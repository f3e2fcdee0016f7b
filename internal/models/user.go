package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member profile stored in MongoDB. The friend requests, message
// counters and notification ledger live inside the same document.
type User struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName     string             `json:"first_name" bson:"first_name"`
	LastName      string             `json:"last_name" bson:"last_name"`
	Email         string             `json:"email" bson:"email"`
	DateOfBirth   time.Time          `json:"date_of_birth" bson:"date_of_birth"`
	ProfileImage  string             `json:"profile_image" bson:"profile_image"`
	BannerImage   string             `json:"banner_image" bson:"banner_image"`
	Details       UserDetails        `json:"details" bson:"details"`
	Friends       []string           `json:"friends" bson:"friends"`
	Requests      FriendRequests     `json:"requests" bson:"requests"`
	Messages      MessageInbox       `json:"messages" bson:"messages"`
	Notifications NotificationLedger `json:"notifications" bson:"notifications"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

type UserDetails struct {
	About      string `json:"about" bson:"about"`
	Gender     string `json:"gender" bson:"gender"`
	Occupation string `json:"occupation" bson:"occupation"`
}

// UserCompact is the public card of a user shown in lists
type UserCompact struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfileImage string `json:"profile_image"`
}

// ToCompact returns the card shown next to posts and requests
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:           u.ID.Hex(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfileImage: u.ProfileImage,
	}
}

// PublicProfile is what other users see of a profile
type PublicProfile struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	ProfileImage string      `json:"profile_image"`
	BannerImage  string      `json:"banner_image"`
	Details      UserDetails `json:"details"`
	FriendCount  int         `json:"friend_count"`
	IsFriend     bool        `json:"is_friend"`
}

// Public returns the profile as seen by viewerID
func (u *User) Public(viewerID string) PublicProfile {
	return PublicProfile{
		ID:           u.ID.Hex(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfileImage: u.ProfileImage,
		BannerImage:  u.BannerImage,
		Details:      u.Details,
		FriendCount:  len(u.Friends),
		IsFriend:     u.IsFriend(viewerID),
	}
}

// IsFriend reports whether userID is in the user's friend list
func (u *User) IsFriend(userID string) bool {
	for _, f := range u.Friends {
		if f == userID {
			return true
		}
	}
	return false
}

// UpdateProfileRequest defines the editable profile fields
type UpdateProfileRequest struct {
	FirstName    string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName     string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	ProfileImage string `json:"profile_image,omitempty" validate:"omitempty,url"`
	BannerImage  string `json:"banner_image,omitempty" validate:"omitempty,url"`
	About        string `json:"about,omitempty" validate:"omitempty,max=500"`
	Gender       string `json:"gender,omitempty" validate:"omitempty,max=30"`
	Occupation   string `json:"occupation,omitempty" validate:"omitempty,max=100"`
}
