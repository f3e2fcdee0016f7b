package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "handler-test-secret"
	alice      = "64b7f0c2a1b2c3d4e5f60001"
	bob        = "64b7f0c2a1b2c3d4e5f60002"
	carol      = "64b7f0c2a1b2c3d4e5f60003"
	postID     = "64b7f0c2a1b2c3d4e5f6aaaa"
	commentID  = "64b7f0c2a1b2c3d4e5f6bbbb"
)

// newAPI returns an echo instance with the validator and a JWT protected
// /api/v1 group
func newAPI() (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	resolver := middleware.NewTokenResolver(testSecret, nil, nil)
	return e, e.Group("/api/v1", middleware.JWTAuthMiddleware(resolver))
}

func request(t *testing.T, e *echo.Echo, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := middleware.IssueToken([]byte(testSecret), &models.Account{ProfileID: userID}, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type published struct {
	topic   string
	payload any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingBroadcaster) Publish(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, payload: payload})
}

func (r *recordingBroadcaster) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.topic)
	}
	return out
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Dispatch(_ context.Context, ev notification.Event) (notification.Outcome, error) {
	args := m.Called(ev)
	return args.Get(0).(notification.Outcome), args.Error(1)
}

func (m *mockNotifier) FriendAccepted(_ context.Context, userID, friendID string) (int, error) {
	args := m.Called(userID, friendID)
	return args.Int(0), args.Error(1)
}
