// Package realtime pushes topic events to connected websocket clients.
// Uses github.com/coder/websocket.
package realtime

import (
	"context"
	"sync"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/anonto42/nano-social/backend/pkg/metrics"
	"go.uber.org/zap"
)

const hubBufferSize = 256

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, hubBufferSize),
		unregister: make(chan *Client, hubBufferSize),
		broadcast:  make(chan []byte, hubBufferSize),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	logger.Log.Info("Realtime hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.shutdown()
			h.drainRegistrations()
			logger.Log.Info("Realtime hub stopped")
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case data := <-h.broadcast:
			h.broadcastMessage(data)
		}
	}
}

// Publish encodes and queues a message for every client. It never blocks:
// when the queue is full the message is dropped.
func (h *Hub) Publish(topic string, payload any) {
	data, err := Encode(topic, payload)
	if err != nil {
		logger.Log.Warn("Failed to encode realtime message", zap.String("topic", topic), zap.Error(err))
		metrics.Get().RealtimeDropped.WithLabelValues("encode").Inc()
		return
	}
	metrics.Get().RealtimePublished.WithLabelValues(topic).Inc()
	h.Deliver(data)
}

// Deliver queues an already encoded message.
func (h *Hub) Deliver(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		metrics.Get().RealtimeDropped.WithLabelValues("hub_full").Inc()
		logger.Log.Warn("Realtime hub queue full, dropping message")
	}
}

// Register adds a client to the hub. Once the hub has stopped the client's
// send channel is closed right away so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
		return
	}
	select {
	case <-h.done:
		h.drainRegistrations()
	default:
	}
}

// Unregister removes a client and closes its send channel. It never blocks
// after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// drainRegistrations closes clients that were queued but never registered.
func (h *Hub) drainRegistrations() {
	for {
		select {
		case client := <-h.register:
			close(client.send)
		default:
			return
		}
	}
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// IsOnline reports whether userID has at least one open connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	metrics.Get().RealtimeConnections.Inc()
	logger.Log.Debug("Client connected", logger.WithUserID(client.UserID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
	metrics.Get().RealtimeConnections.Dec()
	logger.Log.Debug("Client disconnected", logger.WithUserID(client.UserID))
}

// broadcastMessage hands data to every client. Clients whose send buffer is
// full are dropped.
func (h *Hub) broadcastMessage(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.clients {
		for client := range set {
			select {
			case client.send <- data:
			default:
				metrics.Get().RealtimeDropped.WithLabelValues("client_full").Inc()
				h.removeLocked(client)
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}
