package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles likes on posts, comments and replies
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	notifier       Notifier
	broadcaster    notification.Broadcaster
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, notifier Notifier, broadcaster notification.Broadcaster) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		notifier:       notifier,
		broadcaster:    broadcaster,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.POST("/posts/:id/comments/:comment_id/likes", h.LikeComment)
	g.DELETE("/posts/:id/comments/:comment_id/likes", h.UnlikeComment)
	g.POST("/posts/:id/comments/:comment_id/replies/:reply_id/likes", h.LikeReply)
	g.DELETE("/posts/:id/comments/:comment_id/replies/:reply_id/likes", h.UnlikeReply)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	return h.toggle(c, notification.EventPostLike, notification.ActionAdd, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.LikePost(ctx, ref.PostID, userID)
	})
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	return h.toggle(c, notification.EventPostLike, notification.ActionRemove, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.UnlikePost(ctx, ref.PostID, userID)
	})
}

// LikeComment handles liking a comment
func (h *LikeHandler) LikeComment(c echo.Context) error {
	return h.toggle(c, notification.EventCommentLike, notification.ActionAdd, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.LikeComment(ctx, ref.PostID, ref.CommentID, userID)
	})
}

// UnlikeComment handles unliking a comment
func (h *LikeHandler) UnlikeComment(c echo.Context) error {
	return h.toggle(c, notification.EventCommentLike, notification.ActionRemove, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.UnlikeComment(ctx, ref.PostID, ref.CommentID, userID)
	})
}

// LikeReply handles liking a reply
func (h *LikeHandler) LikeReply(c echo.Context) error {
	return h.toggle(c, notification.EventReplyLike, notification.ActionAdd, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.LikeReply(ctx, ref.PostID, ref.CommentID, ref.ReplyID, userID)
	})
}

// UnlikeReply handles unliking a reply
func (h *LikeHandler) UnlikeReply(c echo.Context) error {
	return h.toggle(c, notification.EventReplyLike, notification.ActionRemove, func(ctx context.Context, ref notification.SubjectRef, userID string) error {
		return h.likeRepository.UnlikeReply(ctx, ref.PostID, ref.CommentID, ref.ReplyID, userID)
	})
}

// toggle stores the like change, updates the owner's ledger and tells
// clients that the post changed.
func (h *LikeHandler) toggle(c echo.Context, kind notification.EventKind, action notification.Action,
	apply func(ctx context.Context, ref notification.SubjectRef, userID string) error) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()
	ref := notification.SubjectRef{
		PostID:    c.Param("id"),
		CommentID: c.Param("comment_id"),
		ReplyID:   c.Param("reply_id"),
	}

	if err := apply(ctx, ref, userID); err != nil {
		return httpError(c, err)
	}

	notify(ctx, h.notifier, notification.Event{Kind: kind, Action: action, ActorID: userID, Target: ref})
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": ref.PostID})

	if action == notification.ActionRemove {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"post_id":    ref.PostID,
		"comment_id": ref.CommentID,
		"reply_id":   ref.ReplyID,
		"liked":      true,
	})
}
