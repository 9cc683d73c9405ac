// Package audit is the activity log sink: one append-only entry per applied
// change, keyed by actor, target, and a human-readable description.
package audit

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidInput is returned for empty or malformed entries.
var ErrInvalidInput = errors.New("invalid_input")

// Entry is one activity log record.
type Entry struct {
	ID        string
	ActorID   string
	TargetID  string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// Actions recorded by the service layer.
const (
	ActionDeductionApplied  = "deduction.applied"
	ActionDeductionQueued   = "deduction.queued"
	ActionDeductionApproved = "deduction.approved"
	ActionDeductionRejected = "deduction.rejected"
	ActionPointsAwarded     = "points.awarded"
	ActionMonthlyReset      = "points.monthly_reset"
	ActionInactivityDecay   = "points.inactivity_decay"
	ActionMemberCreated     = "member.created"
)

// Sink is the activity log boundary.
type Sink interface {
	// Append stores one entry.
	Append(ctx context.Context, e Entry) error

	// ListByTarget returns the newest entries for a target, newest first,
	// capped at limit (limit <= 0 means a store-chosen default).
	ListByTarget(ctx context.Context, targetID string, limit int) ([]Entry, error)
}
