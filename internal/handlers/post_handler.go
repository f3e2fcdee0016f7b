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

// PostHandler handles HTTP requests related to posts and the feed
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	broadcaster    notification.Broadcaster
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, broadcaster notification.Broadcaster) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		broadcaster:    broadcaster,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.PATCH("/posts/:id/privacy", h.SetPrivacy)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID := middleware.CurrentUserID(c)

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post := &models.Post{
		Creator:   userID,
		Content:   req.Content,
		PostImage: req.PostImage,
		Privacy:   req.Privacy,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": post.ID.Hex()})

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post the caller is allowed to see
func (h *PostHandler) GetPost(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}

	if post.Privacy != models.PrivacyPublic && post.Creator != userID {
		creator, err := h.userRepository.GetUserByID(ctx, post.Creator)
		if err != nil {
			return httpError(c, err)
		}
		if !creator.IsFriend(userID) {
			return echo.NewHTTPError(http.StatusForbidden, "This post is visible to friends only")
		}
	}
	return c.JSON(http.StatusOK, post)
}

// GetFeed returns public posts, the caller's own posts and posts of friends,
// newest first
func (h *PostHandler) GetFeed(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()
	skip, limit := pagination(c)

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}

	posts, err := h.postRepository.GetFeed(ctx, userID, user.Friends, skip, limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetUserPosts returns the timeline of one user. Friends-only posts are
// left out unless the caller is the user or a friend.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ownerID := c.Param("id")
	ctx := c.Request().Context()
	skip, limit := pagination(c)

	owner, err := h.userRepository.GetUserByID(ctx, ownerID)
	if err != nil {
		return httpError(c, err)
	}

	publicOnly := ownerID != userID && !owner.IsFriend(userID)
	posts, err := h.postRepository.GetPostsByUserID(ctx, ownerID, publicOnly, skip, limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

// UpdatePost edits the caller's own post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID := c.Param("id")

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.requireCreator(c, postID); err != nil {
		return err
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, &req); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusOK, echo.Map{"message": "Post updated"})
}

// SetPrivacy switches a post between friends and public
func (h *PostHandler) SetPrivacy(c echo.Context) error {
	postID := c.Param("id")

	var req models.PrivacyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.requireCreator(c, postID); err != nil {
		return err
	}

	if err := h.postRepository.SetPrivacy(c.Request().Context(), postID, req.Privacy); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.JSON(http.StatusOK, echo.Map{"message": "Privacy updated", "privacy": req.Privacy})
}

// DeletePost deletes the caller's own post. Notifications about it disappear
// the next time their owners list them.
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID := c.Param("id")
	if err := h.requireCreator(c, postID); err != nil {
		return err
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicPosts, echo.Map{"post_id": postID})

	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) requireCreator(c echo.Context, postID string) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(c, err)
	}
	if post.Creator != middleware.CurrentUserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only change your own posts")
	}
	return nil
}
