package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FriendshipHandler handles friend requests and friend lists
type FriendshipHandler struct {
	friendshipRepository repositories.FriendshipRepository
	userRepository       repositories.UserRepository
	notifier             Notifier
	broadcaster          notification.Broadcaster
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendshipRepo repositories.FriendshipRepository, userRepo repositories.UserRepository, notifier Notifier, broadcaster notification.Broadcaster) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipRepository: friendshipRepo,
		userRepository:       userRepo,
		notifier:             notifier,
		broadcaster:          broadcaster,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/requests", h.SendFriendRequest)
	g.GET("/friends/requests", h.GetPendingRequests)
	g.DELETE("/friends/requests/count", h.ClearRequestCount)
	g.POST("/friends/requests/:user_id/accept", h.AcceptFriendRequest)
	g.POST("/friends/requests/:user_id/decline", h.DeclineFriendRequest)
	g.POST("/friends/requests/:user_id/cancel", h.CancelFriendRequest)
	g.DELETE("/friends/:user_id", h.RemoveFriend)
	g.GET("/users/:id/friends", h.GetFriends)
}

// SendFriendRequest files a request in the other user's box
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()

	var req models.CreateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.FriendID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot send a friend request to yourself")
	}

	me, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}
	if me.IsFriend(req.FriendID) {
		return echo.NewHTTPError(http.StatusConflict, "Already friends")
	}

	request, err := h.friendshipRepository.AddRequest(ctx, req.FriendID, userID)
	if err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicFriend, echo.Map{"to": req.FriendID, "from": userID})

	return c.JSON(http.StatusCreated, request)
}

// GetPendingRequests lists requests waiting for the caller, with the
// sender's card
func (h *FriendshipHandler) GetPendingRequests(c echo.Context) error {
	ctx := c.Request().Context()

	me, err := h.userRepository.GetUserByID(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return httpError(c, err)
	}

	senderIDs := make([]string, 0, len(me.Requests.Content))
	for _, r := range me.Requests.Content {
		senderIDs = append(senderIDs, r.UserID)
	}
	senders, err := h.userRepository.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return httpError(c, err)
	}
	cards := make(map[string]models.UserCompact, len(senders))
	for i := range senders {
		cards[senders[i].ID.Hex()] = senders[i].ToCompact()
	}

	pending := make([]models.PendingRequest, 0, len(me.Requests.Content))
	for _, r := range me.Requests.Content {
		card, ok := cards[r.UserID]
		if !ok {
			continue
		}
		pending = append(pending, models.PendingRequest{ID: r.ID.Hex(), Date: r.Date, From: card})
	}

	return c.JSON(http.StatusOK, echo.Map{"count": me.Requests.Count, "requests": pending})
}

// ClearRequestCount marks pending requests as seen
func (h *FriendshipHandler) ClearRequestCount(c echo.Context) error {
	if err := h.friendshipRepository.ClearRequestCount(c.Request().Context(), middleware.CurrentUserID(c)); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AcceptFriendRequest makes both users friends and gives each of them a
// "now friends" notification
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	senderID := c.Param("user_id")
	ctx := c.Request().Context()

	if err := h.friendshipRepository.RemoveRequest(ctx, userID, senderID); err != nil {
		return httpError(c, err)
	}
	if err := h.friendshipRepository.AddFriendship(ctx, userID, senderID); err != nil {
		return httpError(c, err)
	}

	if _, err := h.notifier.FriendAccepted(ctx, userID, senderID); err != nil {
		logger.Log.Error("Failed to record friendship notifications",
			logger.WithUserID(userID),
			zap.String("friend_id", senderID),
			zap.Error(err),
		)
	}
	h.broadcaster.Publish(realtime.TopicHandleFriend, echo.Map{"users": []string{userID, senderID}, "status": "accepted"})

	return c.JSON(http.StatusOK, echo.Map{"message": "Friend request accepted"})
}

// DeclineFriendRequest drops a request the caller received
func (h *FriendshipHandler) DeclineFriendRequest(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	senderID := c.Param("user_id")

	if err := h.friendshipRepository.RemoveRequest(c.Request().Context(), userID, senderID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicHandleFriend, echo.Map{"users": []string{userID, senderID}, "status": "declined"})

	return c.NoContent(http.StatusNoContent)
}

// CancelFriendRequest withdraws a request the caller sent
func (h *FriendshipHandler) CancelFriendRequest(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	recipientID := c.Param("user_id")

	if err := h.friendshipRepository.RemoveRequest(c.Request().Context(), recipientID, userID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicHandleFriend, echo.Map{"users": []string{userID, recipientID}, "status": "cancelled"})

	return c.NoContent(http.StatusNoContent)
}

// RemoveFriend ends a friendship on both sides
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	friendID := c.Param("user_id")
	ctx := c.Request().Context()

	me, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}
	if !me.IsFriend(friendID) {
		return echo.NewHTTPError(http.StatusNotFound, "Not friends")
	}

	if err := h.friendshipRepository.RemoveFriendship(ctx, userID, friendID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicFriend, echo.Map{"users": []string{userID, friendID}, "status": "removed"})

	return c.NoContent(http.StatusNoContent)
}

// GetFriends lists the friends of a user
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	friends, err := h.userRepository.GetUsersByIDs(ctx, user.Friends)
	if err != nil {
		return httpError(c, err)
	}

	cards := make([]models.UserCompact, 0, len(friends))
	for i := range friends {
		cards = append(cards, friends[i].ToCompact())
	}
	return c.JSON(http.StatusOK, cards)
}
