package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Account holds login credentials in PostgreSQL. ProfileID points at the
// user's profile document in MongoDB.
type Account struct {
	gorm.Model
	ProfileID   string  `json:"profile_id" gorm:"uniqueIndex;size:24"`
	Email       string  `json:"email" gorm:"uniqueIndex"`
	Password    string  `json:"-"`
	FirebaseUID *string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`

	ResetToken      *string    `json:"-" gorm:"uniqueIndex"`
	ResetExpiration *time.Time `json:"-"`
}

// ResetValid reports whether the account holds a reset token that has not
// expired at now
func (a *Account) ResetValid(now time.Time) bool {
	return a.ResetToken != nil && a.ResetExpiration != nil && now.Before(*a.ResetExpiration)
}

// ClearReset drops the reset token and its expiration
func (a *Account) ClearReset() {
	a.ResetToken = nil
	a.ResetExpiration = nil
}

type SignupRequest struct {
	FirstName   string    `json:"first_name" validate:"required,min=1,max=50"`
	LastName    string    `json:"last_name" validate:"required,min=1,max=50"`
	Email       string    `json:"email" validate:"required,email"`
	Password    string    `json:"password" validate:"required,min=8"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required"`
	Gender      string    `json:"gender" validate:"required,max=30"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest asks for a reset link to be mailed
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordChangeRequest sets a new password using a reset token
type PasswordChangeRequest struct {
	ResetToken string `json:"reset_token" validate:"required,len=64,hexadecimal"`
	Password   string `json:"password" validate:"required,min=8"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
