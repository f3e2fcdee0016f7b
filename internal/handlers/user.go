package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)       // own profile, with boxes
	g.PUT("/profile", h.UpdateProfile)    // own profile
	g.GET("/users/search", h.SearchUsers) // ?q=
	g.GET("/users/:id", h.GetUser)        // public profile
}

// GetUser returns another user's public profile
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, user.Public(middleware.CurrentUserID(c)))
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.userRepository.UpdateProfile(ctx, userID, &req); err != nil {
		return httpError(c, err)
	}

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// SearchUsers matches users by first or last name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	_, limit := pagination(c)
	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, limit)
	if err != nil {
		return httpError(c, err)
	}

	cards := make([]models.UserCompact, 0, len(users))
	for i := range users {
		cards = append(cards, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, cards)
}
