package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/anonto42/nano-social/backend/pkg/mailer"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Token expires in 72 hours
	tokenTTL = 72 * time.Hour
	// Password reset links are valid for an hour
	resetTTL = time.Hour
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accountRepository repositories.AccountRepository
	userRepository    repositories.UserRepository
	firebaseAuth      firebase.TokenVerifier
	mailer            mailer.Mailer
	jwtSecret         []byte
	publicURL         string
	now               func() time.Time
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables Firebase login. Reset links point at publicURL.
func NewAuthHandler(accountRepo repositories.AccountRepository, userRepo repositories.UserRepository, firebaseAuth firebase.TokenVerifier, mail mailer.Mailer, jwtSecret, publicURL string) *AuthHandler {
	return &AuthHandler{
		accountRepository: accountRepo,
		userRepository:    userRepo,
		firebaseAuth:      firebaseAuth,
		mailer:            mail,
		jwtSecret:         []byte(jwtSecret),
		publicURL:         strings.TrimRight(publicURL, "/"),
		now:               time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/password-reset", h.RequestPasswordReset)
	g.GET("/password-reset/:token", h.CheckPasswordReset)
	g.PATCH("/password-reset", h.ChangePassword)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := h.accountRepository.GetAccountByEmail(email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}
	if !errors.Is(err, repositories.ErrAccountNotFound) {
		return httpError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		DateOfBirth: req.DateOfBirth,
		Details:     models.UserDetails{Gender: req.Gender},
	}
	account := &models.Account{Email: email, Password: string(hashedPassword)}
	if err := h.register(c, user, account); err != nil {
		return err
	}

	return h.respondWithToken(c, http.StatusCreated, account, user)
}

// Login handles local user authentication with email and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accountRepository.GetAccountByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return httpError(c, err)
	}
	// accounts created through Firebase have no local password
	if account.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.respondWithToken(c, http.StatusOK, account, nil)
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT. The
// Firebase user is linked to an existing account with the same email, or a
// new profile is created.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	profile := firebase.ProfileFromToken(token)

	account, err := h.accountRepository.GetAccountByFirebaseUID(profile.UID)
	if err == nil {
		return h.respondWithToken(c, http.StatusOK, account, nil)
	}
	if !errors.Is(err, repositories.ErrAccountNotFound) {
		return httpError(c, err)
	}
	if profile.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	email := strings.ToLower(profile.Email)

	account, err = h.accountRepository.GetAccountByEmail(email)
	switch {
	case err == nil:
		account.FirebaseUID = &profile.UID
		if err := h.accountRepository.UpdateAccount(account); err != nil {
			return httpError(c, err)
		}
		return h.respondWithToken(c, http.StatusOK, account, nil)
	case !errors.Is(err, repositories.ErrAccountNotFound):
		return httpError(c, err)
	}

	user := &models.User{
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Email:        email,
		ProfileImage: profile.ProfileImage,
	}
	account = &models.Account{Email: email, FirebaseUID: &profile.UID}
	if err := h.register(c, user, account); err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusCreated, account, user)
}

// RequestPasswordReset stores a fresh reset token on the account and mails
// the reset link to its owner
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req models.PasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accountRepository.GetAccountByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No user found with that email")
		}
		return httpError(c, err)
	}

	token, err := newResetToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate reset token")
	}
	expires := h.now().Add(resetTTL)
	account.ResetToken = &token
	account.ResetExpiration = &expires
	if err := h.accountRepository.UpdateAccount(account); err != nil {
		return httpError(c, err)
	}

	link := h.publicURL + "/password-reset/" + token
	if err := h.mailer.SendPasswordReset(c.Request().Context(), account.Email, link); err != nil {
		logger.Log.Error("Failed to send password reset mail",
			logger.WithUserID(account.ProfileID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to send password reset email")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "A password reset link has been sent to your email"})
}

// CheckPasswordReset reports whether a reset token can still be used. An
// expired token is cleared.
func (h *AuthHandler) CheckPasswordReset(c echo.Context) error {
	if _, err := h.resetAccount(c, c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": http.StatusOK})
}

// ChangePassword sets a new password for the account holding the reset token
// and consumes the token
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.PasswordChangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.resetAccount(c, req.ResetToken)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	account.Password = string(hashedPassword)
	account.ClearReset()
	if err := h.accountRepository.UpdateAccount(account); err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password successfully changed"})
}

// resetAccount finds the account for a reset token that has not expired
func (h *AuthHandler) resetAccount(c echo.Context, token string) (*models.Account, error) {
	account, err := h.accountRepository.GetAccountByResetToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
		return nil, httpError(c, err)
	}
	if !account.ResetValid(h.now()) {
		account.ClearReset()
		if err := h.accountRepository.UpdateAccount(account); err != nil {
			return nil, httpError(c, err)
		}
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Password reset session has expired")
	}
	return account, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// register creates the profile and then the account pointing at it
func (h *AuthHandler) register(c echo.Context, user *models.User, account *models.Account) error {
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		return httpError(c, err)
	}
	account.ProfileID = user.ID.Hex()
	if err := h.accountRepository.CreateAccount(account); err != nil {
		logger.Log.Error("Failed to create account for new profile",
			logger.WithUserID(account.ProfileID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, account *models.Account, user *models.User) error {
	token, err := middleware.IssueToken(h.jwtSecret, account, tokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	body := echo.Map{"token": token, "user_id": account.ProfileID}
	if user != nil {
		body["user"] = user
	}
	return c.JSON(status, body)
}
