package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comments and replies on posts
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	notifier          Notifier
	broadcaster       notification.Broadcaster
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, notifier Notifier, broadcaster notification.Broadcaster) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		notifier:          notifier,
		broadcaster:       broadcaster,
	}
}

// RegisterCommentRoutes registers comment and reply routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.PUT("/posts/:id/comments/:comment_id", h.UpdateComment)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment)

	g.POST("/posts/:id/comments/:comment_id/replies", h.CreateReply)
	g.PUT("/posts/:id/comments/:comment_id/replies/:reply_id", h.UpdateReply)
	g.DELETE("/posts/:id/comments/:comment_id/replies/:reply_id", h.DeleteReply)
}

// CreateComment adds a comment and notifies the post creator
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID := c.Param("id")

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment := &models.Comment{User: userID, Content: req.Content, PostImage: req.PostImage}
	ctx := c.Request().Context()
	if err := h.commentRepository.AddComment(ctx, postID, comment); err != nil {
		return httpError(c, err)
	}

	notify(ctx, h.notifier, notification.Event{
		Kind:    notification.EventPostComment,
		Action:  notification.ActionAdd,
		ActorID: userID,
		Target:  notification.SubjectRef{PostID: postID},
	})
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits a comment. Only its author may edit it.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID, commentID := c.Param("id"), c.Param("comment_id")

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, comment, err := h.findComment(c, postID, commentID)
	if err != nil {
		return err
	}
	if comment.User != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own comments")
	}

	if err := h.commentRepository.UpdateComment(c.Request().Context(), postID, commentID, req.Content); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusOK, echo.Map{"message": "Comment updated"})
}

// DeleteComment removes a comment. The comment author and the post creator
// may delete it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID, commentID := c.Param("id"), c.Param("comment_id")

	post, comment, err := h.findComment(c, postID, commentID)
	if err != nil {
		return err
	}
	if comment.User != userID && post.Creator != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You cannot delete this comment")
	}

	ctx := c.Request().Context()
	if err := h.commentRepository.DeleteComment(ctx, postID, commentID); err != nil {
		return httpError(c, err)
	}

	notify(ctx, h.notifier, notification.Event{
		Kind:    notification.EventPostComment,
		Action:  notification.ActionRemove,
		ActorID: comment.User,
		Target:  notification.SubjectRef{PostID: postID},
	})
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.NoContent(http.StatusNoContent)
}

// CreateReply adds a reply and notifies the comment author
func (h *CommentHandler) CreateReply(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID, commentID := c.Param("id"), c.Param("comment_id")

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reply := &models.Reply{User: userID, Content: req.Content, PostImage: req.PostImage}
	ctx := c.Request().Context()
	if err := h.commentRepository.AddReply(ctx, postID, commentID, reply); err != nil {
		return httpError(c, err)
	}

	notify(ctx, h.notifier, notification.Event{
		Kind:    notification.EventCommentReply,
		Action:  notification.ActionAdd,
		ActorID: userID,
		Target:  notification.SubjectRef{PostID: postID, CommentID: commentID},
	})
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusCreated, reply)
}

// UpdateReply edits a reply. Only its author may edit it.
func (h *CommentHandler) UpdateReply(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID, commentID, replyID := c.Param("id"), c.Param("comment_id"), c.Param("reply_id")

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, comment, err := h.findComment(c, postID, commentID)
	if err != nil {
		return err
	}
	reply, ok := comment.FindReply(replyID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Reply not found")
	}
	if reply.User != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own replies")
	}

	if err := h.commentRepository.UpdateReply(c.Request().Context(), postID, commentID, replyID, req.Content); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusOK, echo.Map{"message": "Reply updated"})
}

// DeleteReply removes a reply. Its author and the post creator may delete it.
func (h *CommentHandler) DeleteReply(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	postID, commentID, replyID := c.Param("id"), c.Param("comment_id"), c.Param("reply_id")

	post, comment, err := h.findComment(c, postID, commentID)
	if err != nil {
		return err
	}
	reply, ok := comment.FindReply(replyID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Reply not found")
	}
	if reply.User != userID && post.Creator != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You cannot delete this reply")
	}

	ctx := c.Request().Context()
	if err := h.commentRepository.DeleteReply(ctx, postID, commentID, replyID); err != nil {
		return httpError(c, err)
	}

	notify(ctx, h.notifier, notification.Event{
		Kind:    notification.EventCommentReply,
		Action:  notification.ActionRemove,
		ActorID: reply.User,
		Target:  notification.SubjectRef{PostID: postID, CommentID: commentID},
	})
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) findComment(c echo.Context, postID, commentID string) (*models.Post, *models.Comment, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return nil, nil, httpError(c, err)
	}
	comment, ok := post.FindComment(commentID)
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	return post, comment, nil
}
