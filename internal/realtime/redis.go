package realtime

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/anonto42/nano-social/backend/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 3 * time.Second

// RedisBroadcaster publishes messages on a Redis channel so every server
// instance can relay them to its own clients.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster creates a new RedisBroadcaster
func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel}
}

// Publish sends the message in the background. Failures are logged and
// otherwise ignored.
func (b *RedisBroadcaster) Publish(topic string, payload any) {
	data, err := Encode(topic, payload)
	if err != nil {
		logger.Log.Warn("Failed to encode realtime message", zap.String("topic", topic), zap.Error(err))
		metrics.Get().RealtimeDropped.WithLabelValues("encode").Inc()
		return
	}
	metrics.Get().RealtimePublished.WithLabelValues(topic).Inc()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
			metrics.Get().RealtimeDropped.WithLabelValues("redis").Inc()
			logger.Log.Warn("Failed to publish realtime message to Redis",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}()
}

// Relay subscribes to the channel and delivers every message to hub until
// ctx is cancelled.
func (b *RedisBroadcaster) Relay(ctx context.Context, hub *Hub) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Log.Info("Relaying realtime messages from Redis", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			hub.Deliver([]byte(msg.Payload))
		}
	}
}
