package realtime

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Authenticator maps a bearer token to a user ID.
type Authenticator func(token string) (string, error)

// Handler upgrades HTTP requests to websocket connections on the hub
type Handler struct {
	hub          *Hub
	authenticate Authenticator
	origins      []string
}

// NewHandler creates a new Handler. origins lists the allowed Origin host
// patterns for browser clients.
func NewHandler(hub *Hub, authenticate Authenticator, origins []string) *Handler {
	return &Handler{hub: hub, authenticate: authenticate, origins: origins}
}

// RegisterRealtimeRoutes registers the websocket endpoint
func (h *Handler) RegisterRealtimeRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve authenticates the ?token= query parameter and keeps the connection
// open until the client leaves.
func (h *Handler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
	}
	userID, err := h.authenticate(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		logger.Log.Warn("Websocket upgrade failed", logger.WithUserID(userID), zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	client := NewClient(h.hub, conn, userID)
	h.hub.Register(client)
	go client.WritePump(ctx)
	client.ReadPump(ctx)
	return nil
}
