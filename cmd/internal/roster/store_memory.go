package roster

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crewdeck/cmd/points"
)

// InMemoryStore is a dev-mode fallback when DB is not configured.
// A single mutex serializes every write, which also satisfies the per-member
// read-modify-write contract.
type InMemoryStore struct {
	mu         sync.Mutex
	members    map[string]points.Member
	byUsername map[string]string // normalized username -> member id
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		members:    make(map[string]points.Member),
		byUsername: make(map[string]string),
	}
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// copyMember deep-copies the history slice so callers never share state with
// the store.
func copyMember(m points.Member) points.Member {
	cp := m
	if m.History != nil {
		cp.History = make([]points.HistoryEntry, len(m.History))
		copy(cp.History, m.History)
	}
	return cp
}

// Create inserts a new member.
func (s *InMemoryStore) Create(ctx context.Context, m points.Member) (points.Member, error) {
	if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Username) == "" {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.ID]; exists {
		return points.Member{}, ErrConflict
	}
	norm := normalizeUsername(m.Username)
	if _, exists := s.byUsername[norm]; exists {
		return points.Member{}, ErrConflict
	}

	s.members[m.ID] = copyMember(m)
	s.byUsername[norm] = m.ID
	return copyMember(m), nil
}

// Get returns a member by id.
func (s *InMemoryStore) Get(ctx context.Context, id string) (points.Member, error) {
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return points.Member{}, ErrNotFound
	}
	return copyMember(m), nil
}

// GetByUsername returns a member by exact username.
func (s *InMemoryStore) GetByUsername(ctx context.Context, username string) (points.Member, error) {
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[normalizeUsername(username)]
	if !ok {
		return points.Member{}, ErrNotFound
	}
	return copyMember(s.members[id]), nil
}

// Update replaces the stored record for m.ID.
func (s *InMemoryStore) Update(ctx context.Context, m points.Member) (points.Member, error) {
	if strings.TrimSpace(m.ID) == "" {
		return points.Member{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return points.Member{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.members[m.ID]
	if !ok {
		return points.Member{}, ErrNotFound
	}
	if normalizeUsername(old.Username) != normalizeUsername(m.Username) {
		norm := normalizeUsername(m.Username)
		if other, exists := s.byUsername[norm]; exists && other != m.ID {
			return points.Member{}, ErrConflict
		}
		delete(s.byUsername, normalizeUsername(old.Username))
		s.byUsername[norm] = m.ID
	}

	s.members[m.ID] = copyMember(m)
	return copyMember(m), nil
}

// Touch records activity for a member at now.
func (s *InMemoryStore) Touch(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return ErrNotFound
	}
	m.LastActiveAt = now
	s.members[id] = m
	return nil
}

// List returns all members ordered by id.
func (s *InMemoryStore) List(ctx context.Context) ([]points.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]points.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, copyMember(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
