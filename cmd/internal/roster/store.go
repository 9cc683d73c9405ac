// Package roster owns persistence of staff member records.
//
// Stores implement read-modify-write atomicity per member: the engine itself
// is pure, so all serialization of concurrent updates to the same member id
// lives here.
package roster

import (
	"context"
	"time"

	"crewdeck/cmd/points"
)

// Store is the member persistence boundary.
type Store interface {
	// Create inserts a new member. Usernames are unique (ErrConflict).
	Create(ctx context.Context, m points.Member) (points.Member, error)

	// Get returns a member by id (ErrNotFound if missing).
	Get(ctx context.Context, id string) (points.Member, error)

	// GetByUsername returns a member by exact username.
	GetByUsername(ctx context.Context, username string) (points.Member, error)

	// Update replaces the stored record for m.ID with m.
	Update(ctx context.Context, m points.Member) (points.Member, error)

	// Touch records activity for a member at now.
	Touch(ctx context.Context, id string, now time.Time) error

	// List returns all members ordered by id.
	List(ctx context.Context) ([]points.Member, error)
}
