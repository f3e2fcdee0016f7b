package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeUsers) SearchUsers(_ context.Context, query string, limit int64) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if strings.HasPrefix(strings.ToLower(u.FirstName), strings.ToLower(query)) && int64(len(out)) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestUserHandler_GetUser(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		isFriend bool
	}{
		{name: "friend", caller: bob, isFriend: true},
		{name: "stranger", caller: carol, isFriend: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, api := newAPI()
			NewUserHandler(socialGraph()).RegisterProfileRoutes(api)

			rec := request(t, e, http.MethodGet, "/api/v1/users/"+alice, tt.caller, "")

			require.Equal(t, http.StatusOK, rec.Code)
			var got models.PublicProfile
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "Alice", got.FirstName)
			assert.Equal(t, 1, got.FriendCount)
			assert.Equal(t, tt.isFriend, got.IsFriend)
			// the public view never carries the notification ledger
			assert.NotContains(t, rec.Body.String(), "notifications")
		})
	}
}

func TestUserHandler_GetUnknownUser(t *testing.T) {
	e, api := newAPI()
	NewUserHandler(socialGraph()).RegisterProfileRoutes(api)

	rec := request(t, e, http.MethodGet, "/api/v1/users/64b7f0c2a1b2c3d4e5f6ffff", bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_SearchUsers(t *testing.T) {
	e, api := newAPI()
	NewUserHandler(socialGraph()).RegisterProfileRoutes(api)

	rec := request(t, e, http.MethodGet, "/api/v1/users/search?q=bo", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []models.UserCompact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "Bob", cards[0].FirstName)

	rec = request(t, e, http.MethodGet, "/api/v1/users/search?q=%20", alice, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
