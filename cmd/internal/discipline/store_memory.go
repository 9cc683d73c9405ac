package discipline

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryStore is a dev-mode fallback when DB is not configured.
type InMemoryStore struct {
	mu       sync.Mutex
	requests map[string]Request
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]Request)}
}

// Create inserts a new request.
func (s *InMemoryStore) Create(ctx context.Context, req Request) (Request, error) {
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.TargetID) == "" {
		return Request{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return Request{}, ErrConflict
	}
	s.requests[req.ID] = req
	return req, nil
}

// Get returns a request by id.
func (s *InMemoryStore) Get(ctx context.Context, id string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// Update replaces the stored record for req.ID.
func (s *InMemoryStore) Update(ctx context.Context, req Request) (Request, error) {
	if strings.TrimSpace(req.ID) == "" {
		return Request{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; !ok {
		return Request{}, ErrNotFound
	}
	s.requests[req.ID] = req
	return req, nil
}

// ListByStatus returns requests in the given state, oldest first.
func (s *InMemoryStore) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, req := range s.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
