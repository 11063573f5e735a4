package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
	"github.com/weiawesome/yaycha/pkg/pubsub"
)

var ErrHubStopped = errors.New("notification hub stopped")

// Message is what a websocket client receives for every event.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hub fans notification events out to the websocket connections of their
// recipient. One pattern subscription serves every user.
type Hub struct {
	clients    map[uint]map[string]*Client // userID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	subscriber pubsub.Subscriber
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

func NewHub(subscriber pubsub.Subscriber, cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[uint]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		subscriber: subscriber,
		config:     cfg,
	}
}

// Config returns the websocket timings clients should use.
func (h *Hub) Config() config.WebSocketConfig {
	return h.config
}

// Run subscribes to the notification stream and serves clients until ctx is
// cancelled or the stream closes. Open connections are closed on return.
func (h *Hub) Run(ctx context.Context) error {
	pattern := pubsub.UserPattern(pubsub.StreamNotifications)
	events, err := h.subscriber.SubscribePattern(ctx, pattern)
	if err != nil {
		close(h.done)
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	l := log.Ctx(ctx)
	l.Info().Str("pattern", pattern).Msg("notification hub started")

	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[string]*Client)
			}
			h.clients[client.UserID][client.ID] = client
			h.mu.Unlock()
			metrics.WSConnected(1)
			l.Debug().Str("client_id", client.ID).Uint(log.FieldUserID, client.UserID).Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)
			l.Debug().Str("client_id", client.ID).Uint(log.FieldUserID, client.UserID).Msg("client unregistered")

		case event, ok := <-events:
			if !ok {
				l.Warn().Msg("notification stream closed")
				return nil
			}
			h.deliver(ctx, event)
		}
	}
}

// Register adds client to the hub. It fails once the hub has stopped.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(ctx context.Context, event *pubsub.Event) {
	l := log.Ctx(ctx)

	_, userID, err := pubsub.ParseUserChannel(event.Channel)
	if err != nil {
		l.Warn().Err(err).Msg("dropping event on unexpected channel")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(Message{Type: event.Type, Data: event.Payload})
	if err != nil {
		l.Error().Err(err).Msg("failed to encode websocket message")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
			metrics.RecordDelivery(true)
		default:
			// Slow consumer; drop it so one client cannot stall the stream.
			metrics.RecordDelivery(false)
			l.Warn().Str("client_id", c.ID).Uint(log.FieldUserID, userID).Msg("client buffer full, disconnecting")
			h.remove(c)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byID, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := byID[client.ID]; !ok {
		return
	}
	delete(byID, client.ID)
	if len(byID) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
	metrics.WSConnected(-1)
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, byID := range h.clients {
		for _, c := range byID {
			close(c.send)
			metrics.WSConnected(-1)
		}
		delete(h.clients, userID)
	}
}
