package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestEncode(t *testing.T) {
	data, err := Encode(TopicNotification, []string{"u1", "u2"})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TopicNotification, msg.Topic)
	assert.JSONEq(t, `["u1","u2"]`, string(msg.Payload))
	assert.False(t, msg.Timestamp.IsZero())

	data, err = Encode(TopicPosts, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "payload")
}

func TestHub_PublishReachesEveryClient(t *testing.T) {
	hub := startHub(t)
	a := NewClient(hub, nil, "u1")
	b := NewClient(hub, nil, "u1")
	c := NewClient(hub, nil, "u2")
	for _, client := range []*Client{a, b, c} {
		hub.Register(client)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, hub.IsOnline("u1"))
	assert.False(t, hub.IsOnline("u3"))

	hub.Publish(TopicFriend, map[string]string{"from": "u3"})

	for _, client := range []*Client{a, b, c} {
		msg := receive(t, client)
		assert.Equal(t, TopicFriend, msg.Topic)
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, "u1")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsOnline("u1") }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok)

	// a second unregister is a no-op
	hub.Unregister(client)
	hub.Publish(TopicPosts, nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := NewClient(hub, nil, "slow")
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.IsOnline("slow") }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendBufferSize+1; i++ {
		hub.Publish(TopicMessages, i)
	}

	require.Eventually(t, func() bool { return !hub.IsOnline("slow") }, time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, "u1")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	_, ok := <-client.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StoppedHubNeverBlocks(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	clients := make([]*Client, hubBufferSize+10)
	finished := make(chan struct{})
	go func() {
		for i := range clients {
			clients[i] = NewClient(hub, nil, "late")
			hub.Register(clients[i])
			hub.Unregister(clients[i])
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("register or unregister blocked on a stopped hub")
	}
	for _, c := range clients {
		_, ok := <-c.send
		assert.False(t, ok)
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHandler_Websocket(t *testing.T) {
	hub := startHub(t)
	auth := func(token string) (string, error) {
		if token != "good" {
			return "", errors.New("bad token")
		}
		return "u1", nil
	}

	e := echo.New()
	NewHandler(hub, auth, nil).RegisterRealtimeRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("rejects a bad token", func(t *testing.T) {
		_, resp, err := websocket.Dial(ctx, wsURL+"?token=nope", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("delivers published messages", func(t *testing.T) {
		conn, _, err := websocket.Dial(ctx, wsURL+"?token=good", nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 5*time.Millisecond)
		hub.Publish(TopicNotification, []string{"u1"})

		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, TopicNotification, msg.Topic)
	})
}
