// Package ws streams live tally updates to websocket subscribers. Updates
// arrive over the redis tally channels published by the vote service, so the
// feed also works when several instances sit behind a load balancer.
package ws

import (
	"context"
	"strings"
	"sync"

	"pollbox/internal/redis"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks which clients watch which question and fans incoming tally
// updates out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	logger  *logger.Logger
}

func NewHub(l *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		logger:  l,
	}
}

// Run consumes the tally:* pattern until ctx is cancelled. Without redis the
// hub stays idle and live feeds simply deliver nothing.
func (h *Hub) Run(ctx context.Context, sub *redis.Subscriber) {
	err := sub.Subscribe(ctx, []string{"tally:*"}, func(channel string, payload []byte) {
		questionID, err := uuid.Parse(strings.TrimPrefix(channel, "tally:"))
		if err != nil {
			return
		}
		h.Broadcast(questionID, payload)
	})
	if err != nil && ctx.Err() == nil && h.logger != nil {
		h.logger.Errorf("tally subscription ended: %s", err)
	}
}

func (h *Hub) Broadcast(questionID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[questionID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the update rather than block the hub.
		}
	}
}

func (h *Hub) register(questionID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[questionID] == nil {
		h.clients[questionID] = make(map[*Client]struct{})
	}
	h.clients[questionID][c] = struct{}{}
}

func (h *Hub) unregister(questionID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[questionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, questionID)
		}
	}
}
