package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	claimsKey = "user"
)

// ErrInvalidToken is returned for tokens that are neither a valid local JWT
// nor a verified Firebase ID token.
var ErrInvalidToken = errors.New("invalid token")

// TokenResolver turns a bearer token into a profile ID. Local JWTs are tried
// first; Firebase ID tokens are accepted when a verifier is configured.
type TokenResolver struct {
	secret   []byte
	verifier firebase.TokenVerifier
	accounts AccountLookup
}

// NewTokenResolver creates a TokenResolver. verifier may be nil to accept
// local tokens only.
func NewTokenResolver(secret string, verifier firebase.TokenVerifier, accounts AccountLookup) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), verifier: verifier, accounts: accounts}
}

// Resolve returns the profile ID the token was issued for
func (r *TokenResolver) Resolve(ctx context.Context, token string) (string, error) {
	claims, err := ParseToken(r.secret, token)
	if err == nil {
		return claims.UserID, nil
	}
	if r.verifier == nil {
		return "", err
	}
	return r.resolveFirebase(ctx, token)
}

// IssueToken signs a local JWT for account
func IssueToken(secret []byte, account *models.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: account.ProfileID,
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a local JWT and returns its claims
func ParseToken(secret []byte, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTAuthMiddleware checks the bearer token and stores the caller's profile
// ID in the context.
func JWTAuthMiddleware(resolver *TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			userID, err := resolver.Resolve(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// CurrentUserID returns the profile ID stored by JWTAuthMiddleware
func CurrentUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// SetCurrentUserID stores userID the way JWTAuthMiddleware does
func SetCurrentUserID(c echo.Context, userID string) {
	c.Set(userIDKey, userID)
}
