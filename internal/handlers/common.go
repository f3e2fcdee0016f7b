package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Notifier applies domain events to notification ledgers
type Notifier interface {
	Dispatch(ctx context.Context, ev notification.Event) (notification.Outcome, error)
	FriendAccepted(ctx context.Context, userID, friendID string) (int, error)
}

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{repositories.ErrInvalidID, http.StatusBadRequest, "Invalid id"},
	{repositories.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{notification.ErrRecipientNotFound, http.StatusNotFound, "User not found"},
	{repositories.ErrPostNotFound, http.StatusNotFound, "Post not found"},
	{repositories.ErrCommentNotFound, http.StatusNotFound, "Comment not found"},
	{repositories.ErrReplyNotFound, http.StatusNotFound, "Reply not found"},
	{notification.ErrSubjectNotFound, http.StatusNotFound, "Not found"},
	{repositories.ErrChatNotFound, http.StatusNotFound, "Chat not found"},
	{repositories.ErrRequestNotFound, http.StatusNotFound, "Friend request not found"},
	{repositories.ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{repositories.ErrAlreadyLiked, http.StatusConflict, "Already liked"},
	{repositories.ErrNotLiked, http.StatusConflict, "Not liked"},
	{repositories.ErrRequestExists, http.StatusConflict, "Friend request already sent"},
}

// httpError maps repository and notification errors to HTTP errors.
// Anything unknown is logged and reported as a 500.
func httpError(c echo.Context, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return echo.NewHTTPError(e.status, e.message)
		}
	}
	logger.Log.Error("Request failed",
		zap.String("path", c.Path()),
		logger.WithUserID(middleware.CurrentUserID(c)),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// bindAndValidate decodes the request body into req and runs e.Validator on it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// pagination reads ?skip= and ?limit=
func pagination(c echo.Context) (skip, limit int64) {
	limit = defaultPageSize
	if v, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.ParseInt(c.QueryParam("skip"), 10, 64); err == nil && v > 0 {
		skip = v
	}
	return skip, limit
}

// notify dispatches ev after the triggering write succeeded. The write stays
// committed when the ledger update fails, so the failure is only logged.
func notify(ctx context.Context, n Notifier, ev notification.Event) {
	if _, err := n.Dispatch(ctx, ev); err != nil {
		logger.Log.Error("Failed to update notification ledger",
			zap.String("kind", string(ev.Kind)),
			zap.String("action", string(ev.Action)),
			logger.WithUserID(ev.ActorID),
			logger.WithPostID(ev.Target.PostID),
			zap.Error(err),
		)
	}
}
