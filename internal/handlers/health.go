package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency the health check pings
type Pinger func(ctx context.Context) error

// HealthHandler reports whether the server and its stores are reachable
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a HealthHandler pinging every named dependency
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck answers 200 when every check passes and 503 otherwise
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "degraded"
	}
	return c.JSON(status, echo.Map{
		"status":       health,
		"service":      "nano-social",
		"dependencies": deps,
	})
}
