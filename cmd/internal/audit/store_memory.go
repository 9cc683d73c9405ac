package audit

import (
	"context"
	"strings"
	"sync"
)

const (
	memMaxEntries   = 10_000
	defaultListSize = 50
)

// InMemorySink is a dev-mode fallback when DB is not configured. It keeps a
// bounded window of recent entries.
type InMemorySink struct {
	mu      sync.Mutex
	entries []Entry // newest last
}

// NewInMemorySink constructs an in-memory Sink implementation.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

// Append stores one entry.
func (s *InMemorySink) Append(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Action) == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > memMaxEntries {
		s.entries = s.entries[len(s.entries)-memMaxEntries:]
	}
	return nil
}

// ListByTarget returns the newest entries for a target, newest first.
func (s *InMemorySink) ListByTarget(ctx context.Context, targetID string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].TargetID == targetID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}
