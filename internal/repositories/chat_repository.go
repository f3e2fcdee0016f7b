package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepository defines chat operations plus the per-user message inbox
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatByID(ctx context.Context, id string) (*models.Chat, error)
	FindChatByUsers(ctx context.Context, users []string) (*models.Chat, error)
	GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	AppendMessage(ctx context.Context, chatID string, msg *models.ChatMessage) error
	AddUser(ctx context.Context, chatID, userID string) error
	RemoveUser(ctx context.Context, chatID, userID string) error
	PushInbox(ctx context.Context, userID, chatID string, unread bool) error
	ClearMessageCount(ctx context.Context, userID string) error
}

// MongoChatRepository implements ChatRepository for MongoDB
type MongoChatRepository struct {
	collection *mongo.Collection
	users      *mongo.Collection
}

// NewMongoChatRepository creates a new MongoChatRepository
func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{
		collection: db.Collection("chats"),
		users:      db.Collection("users"),
	}
}

// CreateChat stores a new chat with empty message history
func (r *MongoChatRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	chat.ID = primitive.NewObjectID()
	chat.UpdatedAt = time.Now()
	if chat.Messages == nil {
		chat.Messages = []models.ChatMessage{}
	}
	_, err := r.collection.InsertOne(ctx, chat)
	return err
}

// GetChatByID retrieves a chat by ID from MongoDB
func (r *MongoChatRepository) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// FindChatByUsers returns the chat whose members are exactly users
func (r *MongoChatRepository) FindChatByUsers(ctx context.Context, users []string) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"users": bson.M{"$size": len(users), "$all": users}})
}

func (r *MongoChatRepository) findOne(ctx context.Context, filter bson.M) (*models.Chat, error) {
	var chat models.Chat
	if err := r.collection.FindOne(ctx, filter).Decode(&chat); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// GetChatsForUser lists the user's chats, most recently active first
func (r *MongoChatRepository) GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"users": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// AppendMessage pushes a message onto a chat
func (r *MongoChatRepository) AppendMessage(ctx context.Context, chatID string, msg *models.ChatMessage) error {
	objID, err := objectID(chatID)
	if err != nil {
		return err
	}
	msg.ID = primitive.NewObjectID()
	msg.Date = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.Date},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

// AddUser makes userID a member of the chat
func (r *MongoChatRepository) AddUser(ctx context.Context, chatID, userID string) error {
	objID, err := objectID(chatID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$addToSet": bson.M{"users": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

// RemoveUser takes userID out of the chat and drops the chat from the
// user's inbox
func (r *MongoChatRepository) RemoveUser(ctx context.Context, chatID, userID string) error {
	objID, err := objectID(chatID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "users": userID}, bson.M{"$pull": bson.M{"users": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}

	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	_, err = r.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$pull": bson.M{"messages.content": chatID}})
	return err
}

// PushInbox moves chatID to the front of the user's inbox. unread bumps the
// unread message count.
func (r *MongoChatRepository) PushInbox(ctx context.Context, userID, chatID string, unread bool) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$pull": bson.M{"messages.content": chatID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	update := bson.M{"$push": bson.M{"messages.content": bson.M{"$each": bson.A{chatID}, "$position": 0}}}
	if unread {
		update["$inc"] = bson.M{"messages.count": 1}
	}
	_, err = r.users.UpdateOne(ctx, bson.M{"_id": uid}, update)
	return err
}

// ClearMessageCount zeroes the unread message count
func (r *MongoChatRepository) ClearMessageCount(ctx context.Context, userID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"messages.count": 0}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
