package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is one dashboard notification. Payload is marshaled once at publish
// time so slow subscribers cannot observe later mutations.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub fans events out to websocket subscribers, grouped by organization so
// one tenant never sees another's calls.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		logger:      logger.With("component", "events"),
	}
}

// Publish delivers an event to every subscriber of the organization. Slow
// subscribers get dropped messages, never a blocked publisher: this runs on
// the analysis request path.
func (h *Hub) Publish(orgID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("unmarshalable event payload", "error", err, "event", event)
		return
	}

	e := &Event{Type: event, Payload: data, Timestamp: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers[orgID] {
		select {
		case sub.send <- e:
		default:
			h.logger.Warn("subscriber buffer full, dropping event", "org_id", orgID, "event", event)
		}
	}
}

// SubscriberCount reports how many connections an organization has open.
func (h *Hub) SubscriberCount(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[orgID])
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[sub.orgID] == nil {
		h.subscribers[sub.orgID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sub.orgID][sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[sub.orgID], sub)
	if len(h.subscribers[sub.orgID]) == 0 {
		delete(h.subscribers, sub.orgID)
	}
}
