package realtime

import (
	"encoding/json"
	"time"
)

// Topics pushed to connected clients.
const (
	TopicPosts        = "posts"
	TopicNotification = "notification"
	TopicFriend       = "friend"
	TopicHandleFriend = "handle friend"
	TopicMessages     = "messages"
)

// Message is the envelope written to every websocket.
type Message struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode wraps payload in a Message and marshals it.
func Encode(topic string, payload any) ([]byte, error) {
	msg := Message{Topic: topic, Timestamp: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}
