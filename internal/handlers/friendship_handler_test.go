package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFriendships struct {
	repositories.FriendshipRepository
	pending map[[2]string]bool // {owner, from}
	friends [][2]string
}

func (f *fakeFriendships) AddRequest(_ context.Context, toUserID, fromUserID string) (*models.FriendRequest, error) {
	key := [2]string{toUserID, fromUserID}
	if f.pending[key] {
		return nil, repositories.ErrRequestExists
	}
	f.pending[key] = true
	return &models.FriendRequest{ID: primitive.NewObjectID(), UserID: fromUserID}, nil
}

func (f *fakeFriendships) RemoveRequest(_ context.Context, ownerID, fromUserID string) error {
	key := [2]string{ownerID, fromUserID}
	if !f.pending[key] {
		return repositories.ErrRequestNotFound
	}
	delete(f.pending, key)
	return nil
}

func (f *fakeFriendships) AddFriendship(_ context.Context, userID, friendID string) error {
	f.friends = append(f.friends, [2]string{userID, friendID})
	return nil
}

type fakeUsers struct {
	repositories.UserRepository
	users map[string]*models.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func TestFriendshipHandler_Accept(t *testing.T) {
	friendships := &fakeFriendships{pending: map[[2]string]bool{{alice, bob}: true}}
	notifier := &mockNotifier{}
	notifier.On("FriendAccepted", alice, bob).Return(2, nil)
	broadcaster := &recordingBroadcaster{}

	e, api := newAPI()
	NewFriendshipHandler(friendships, &fakeUsers{}, notifier, broadcaster).RegisterFriendshipRoutes(api)

	rec := request(t, e, http.MethodPost, "/api/v1/friends/requests/"+bob+"/accept", alice, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][2]string{{alice, bob}}, friendships.friends)
	assert.Empty(t, friendships.pending)
	notifier.AssertExpectations(t)
	assert.Equal(t, []string{realtime.TopicHandleFriend}, broadcaster.topics())
}

func TestFriendshipHandler_AcceptWithoutRequest(t *testing.T) {
	friendships := &fakeFriendships{pending: map[[2]string]bool{}}
	notifier := &mockNotifier{}

	e, api := newAPI()
	NewFriendshipHandler(friendships, &fakeUsers{}, notifier, &recordingBroadcaster{}).RegisterFriendshipRoutes(api)

	rec := request(t, e, http.MethodPost, "/api/v1/friends/requests/"+bob+"/accept", alice, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, friendships.friends)
	notifier.AssertNotCalled(t, "FriendAccepted", mock.Anything, mock.Anything)
}

func TestFriendshipHandler_SendRequest(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{
		alice: {Friends: []string{carol}},
	}}

	tests := []struct {
		name       string
		body       string
		pending    map[[2]string]bool
		wantStatus int
	}{
		{name: "new request", body: `{"friend_id":"` + bob + `"}`, pending: map[[2]string]bool{}, wantStatus: http.StatusCreated},
		{name: "to self", body: `{"friend_id":"` + alice + `"}`, pending: map[[2]string]bool{}, wantStatus: http.StatusBadRequest},
		{name: "already friends", body: `{"friend_id":"` + carol + `"}`, pending: map[[2]string]bool{}, wantStatus: http.StatusConflict},
		{name: "already pending", body: `{"friend_id":"` + bob + `"}`, pending: map[[2]string]bool{{bob, alice}: true}, wantStatus: http.StatusConflict},
		{name: "malformed id", body: `{"friend_id":"nope"}`, pending: map[[2]string]bool{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broadcaster := &recordingBroadcaster{}
			e, api := newAPI()
			NewFriendshipHandler(&fakeFriendships{pending: tt.pending}, users, &mockNotifier{}, broadcaster).RegisterFriendshipRoutes(api)

			rec := request(t, e, http.MethodPost, "/api/v1/friends/requests", alice, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, []string{realtime.TopicFriend}, broadcaster.topics())
			} else {
				assert.Empty(t, broadcaster.topics())
			}
		})
	}
}
