package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/labstack/echo/v4"
)

// NotificationInbox is the caller's view of their own ledger
type NotificationInbox interface {
	List(ctx context.Context, userID string) (*notification.Ledger, error)
	Clear(ctx context.Context, userID string, mode notification.ClearMode) (*notification.Ledger, error)
}

// NotificationHandler handles HTTP requests related to notifications
type NotificationHandler struct {
	inbox NotificationInbox
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.DELETE("/notifications", h.ClearNotifications)
}

// GetNotifications returns the unseen count and the records, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	ledger, err := h.inbox.List(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewNotificationLedger(ledger))
}

// ClearNotifications resets the ledger. ?mode=clear drops every record,
// anything else only marks them as seen.
func (h *NotificationHandler) ClearNotifications(c echo.Context) error {
	mode := notification.ClearMode(c.QueryParam("mode"))
	if mode == "" {
		mode = notification.ClearSeen
	}

	ledger, err := h.inbox.Clear(c.Request().Context(), middleware.CurrentUserID(c), mode)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewNotificationLedger(ledger))
}
