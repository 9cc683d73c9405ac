package discipline

import "context"

// Store is the deduction-request persistence boundary.
type Store interface {
	// Create inserts a new pending request (ErrConflict on duplicate id).
	Create(ctx context.Context, req Request) (Request, error)

	// Get returns a request by id (ErrNotFound if missing).
	Get(ctx context.Context, id string) (Request, error)

	// Update replaces the stored record for req.ID. The pending->decided
	// transition is enforced by the workflow, not here; stores only persist.
	Update(ctx context.Context, req Request) (Request, error)

	// ListByStatus returns requests in the given state, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]Request, error)
}
