// Package feed streams applied activity entries to connected dashboard
// clients over websockets. It is one-way: the server broadcasts, clients
// listen.
package feed

import (
	"log/slog"
	"sync"
	"time"

	"crewdeck/cmd/internal/audit"
)

// Event is the wire frame broadcast for each activity entry.
type Event struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Hub fans activity entries out to subscribers.
type Hub struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// Subscriber is one listening client.
//
// C is intentionally never closed by the Hub to keep Publish safe under
// concurrency; consumers stop via Unsubscribe and their own context.
type Subscriber struct {
	C chan Event
}

// NewHub constructs a Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new listener with a bounded queue.
func (h *Hub) Subscribe(queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = 64
	}
	s := &Subscriber{C: make(chan Event, queueSize)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a listener (idempotent).
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Publish broadcasts an activity entry to all subscribers. Slow subscribers
// with a full queue miss the event rather than blocking the write path.
func (h *Hub) Publish(e audit.Entry) {
	event := Event{
		ID:        e.ID,
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Action:    e.Action,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		select {
		case s.C <- event:
		default:
			h.log.Warn("feed.drop", "action", e.Action)
		}
	}
}

// Subscribers reports the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
