package discipline

import "time"

// Status is the deduction request lifecycle state.
// The only transitions are pending -> approved and pending -> rejected; both
// are terminal and a request is never deleted or re-opened.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a queued, reviewable proposal to subtract points from a member,
// created when the requester lacks direct-deduction authority.
type Request struct {
	ID          string
	TargetID    string
	RequestedBy string

	// Points is the positive magnitude to deduct on approval.
	Points int
	Reason string

	CreatedAt time.Time
	Status    Status

	// Review fields are populated exactly once, on the transition out of
	// pending.
	ReviewedBy *string
	ReviewedAt *time.Time
	ReviewNote *string
}
