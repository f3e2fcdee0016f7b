package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ChatHandler handles chats and the unread message counter
type ChatHandler struct {
	chatRepository repositories.ChatRepository
	userRepository repositories.UserRepository
	broadcaster    notification.Broadcaster
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatRepo repositories.ChatRepository, userRepo repositories.UserRepository, broadcaster notification.Broadcaster) *ChatHandler {
	return &ChatHandler{chatRepository: chatRepo, userRepository: userRepo, broadcaster: broadcaster}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chats", h.CreateChat)
	g.GET("/chats", h.GetChats)
	g.GET("/chats/:id", h.GetChat)
	g.POST("/chats/:id/messages", h.SendMessage)
	g.POST("/chats/:id/leave", h.LeaveChat)
	g.POST("/chats/:id/members", h.AddMember)
	g.DELETE("/chats/:id/members/:user_id", h.RemoveMember)
	g.DELETE("/messages/count", h.ClearMessageCount)
}

// CreateChat sends a first message to recipients. When a chat with exactly
// these members exists the message is added to it instead.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()

	var req models.CreateChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	users := uniqueIDs(append([]string{userID}, req.Recipients...))
	if len(users) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "A chat needs at least one other user")
	}

	chat, err := h.chatRepository.FindChatByUsers(ctx, users)
	status := http.StatusOK
	if errors.Is(err, repositories.ErrChatNotFound) {
		chat = &models.Chat{Users: users}
		err = h.chatRepository.CreateChat(ctx, chat)
		status = http.StatusCreated
	}
	if err != nil {
		return httpError(c, err)
	}

	msg, err := h.deliver(ctx, chat, userID, req.Message)
	if err != nil {
		return httpError(c, err)
	}
	chat.Messages = append(chat.Messages, *msg)

	return c.JSON(status, chat)
}

// GetChats lists the caller's chats
func (h *ChatHandler) GetChats(c echo.Context) error {
	chats, err := h.chatRepository.GetChatsForUser(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, chats)
}

// GetChat returns one chat the caller takes part in
func (h *ChatHandler) GetChat(c echo.Context) error {
	chat, err := h.memberChat(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chat)
}

// SendMessage appends a message to a chat
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	chat, err := h.memberChat(c)
	if err != nil {
		return err
	}

	msg, err := h.deliver(c.Request().Context(), chat, middleware.CurrentUserID(c), req.Message)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// LeaveChat removes the caller from a chat
func (h *ChatHandler) LeaveChat(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	chatID := c.Param("id")

	if err := h.chatRepository.RemoveUser(c.Request().Context(), chatID, userID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicMessages, echo.Map{"chat_id": chatID, "left": userID})

	return c.NoContent(http.StatusNoContent)
}

// AddMember lets a chat member bring one of their friends into the chat. The
// chat shows up as unread in the friend's inbox.
func (h *ChatHandler) AddMember(c echo.Context) error {
	var req models.ChatMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	chat, err := h.memberChat(c)
	if err != nil {
		return err
	}
	if err := h.requireFriend(c, req.UserID); err != nil {
		return err
	}
	if chat.HasUser(req.UserID) {
		return echo.NewHTTPError(http.StatusConflict, "This user is already in the chat")
	}

	ctx := c.Request().Context()
	chatID := chat.ID.Hex()
	if err := h.chatRepository.AddUser(ctx, chatID, req.UserID); err != nil {
		return httpError(c, err)
	}
	if err := h.chatRepository.PushInbox(ctx, req.UserID, chatID, true); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicMessages, echo.Map{"chat_id": chatID, "added": req.UserID})

	return c.JSON(http.StatusOK, echo.Map{"message": "Friend has been added to the chat"})
}

// RemoveMember lets a chat member take one of their friends out of the chat
func (h *ChatHandler) RemoveMember(c echo.Context) error {
	friendID := c.Param("user_id")

	chat, err := h.memberChat(c)
	if err != nil {
		return err
	}
	if err := h.requireFriend(c, friendID); err != nil {
		return err
	}
	if !chat.HasUser(friendID) {
		return echo.NewHTTPError(http.StatusNotFound, "User not currently in chat")
	}

	chatID := chat.ID.Hex()
	if err := h.chatRepository.RemoveUser(c.Request().Context(), chatID, friendID); err != nil {
		return httpError(c, err)
	}
	h.broadcaster.Publish(realtime.TopicMessages, echo.Map{"chat_id": chatID, "removed": friendID})

	return c.NoContent(http.StatusNoContent)
}

// ClearMessageCount marks every message as read
func (h *ChatHandler) ClearMessageCount(c echo.Context) error {
	if err := h.chatRepository.ClearMessageCount(c.Request().Context(), middleware.CurrentUserID(c)); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// deliver stores the message and moves the chat to the front of every
// member's inbox. Members other than the sender get an unread message.
func (h *ChatHandler) deliver(ctx context.Context, chat *models.Chat, senderID, text string) (*models.ChatMessage, error) {
	chatID := chat.ID.Hex()
	msg := &models.ChatMessage{User: senderID, Message: text}
	if err := h.chatRepository.AppendMessage(ctx, chatID, msg); err != nil {
		return nil, err
	}

	for _, member := range chat.Users {
		err := h.chatRepository.PushInbox(ctx, member, chatID, member != senderID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, err
		}
	}

	h.broadcaster.Publish(realtime.TopicMessages, echo.Map{"chat_id": chatID, "users": chat.Users, "from": senderID})
	return msg, nil
}

func (h *ChatHandler) memberChat(c echo.Context) (*models.Chat, error) {
	chat, err := h.chatRepository.GetChatByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, httpError(c, err)
	}
	if !chat.HasUser(middleware.CurrentUserID(c)) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not part of this chat")
	}
	return chat, nil
}

// requireFriend fails with 404 unless friendID is a friend of the caller
func (h *ChatHandler) requireFriend(c echo.Context, friendID string) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(c, err)
	}
	if !user.IsFriend(friendID) {
		return echo.NewHTTPError(http.StatusNotFound, "Friend not found")
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
