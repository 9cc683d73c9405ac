// Package discipline implements the deduction workflow: direct application of
// penalties for callers with authority, and a pending/approve/reject request
// queue for everyone else.
package discipline

import (
	"strings"
	"time"

	"crewdeck/cmd/points"
	"crewdeck/cmd/points/ids"
)

// Authority carries the requester's resolved permission flags. Resolving who
// holds which flag is an external collaborator's job.
type Authority struct {
	CanDeductDirectly bool
}

// Decision is a reviewer verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// OutcomeKind tags what a workflow call did.
type OutcomeKind string

const (
	OutcomeApplied  OutcomeKind = "applied"
	OutcomeQueued   OutcomeKind = "queued"
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome describes a workflow result. Applied is set for OutcomeApplied;
// Request is set for OutcomeQueued and OutcomeRejected, and for OutcomeApplied
// when the application came from deciding a queued request.
type Outcome struct {
	Kind    OutcomeKind
	Applied *points.Result
	Request *Request
}

// DeductionInput names the penalty to apply: a catalog key, or a custom
// positive amount when no catalog entry fits.
type DeductionInput struct {
	ViolationKey string
	CustomPoints int
	Reason       string
}

// Workflow holds the pure deduction rules. It performs no I/O; persisting the
// returned member and request values is the caller's job.
type Workflow struct {
	engine  points.Engine
	catalog points.Catalog
}

// NewWorkflow constructs a Workflow over an engine and a violation catalog.
func NewWorkflow(engine points.Engine, catalog points.Catalog) Workflow {
	return Workflow{engine: engine, catalog: catalog}
}

// Engine returns the underlying points engine.
func (w Workflow) Engine() points.Engine { return w.engine }

// resolveAmount turns a DeductionInput into a positive magnitude and a reason.
func (w Workflow) resolveAmount(op string, in DeductionInput) (int, string, error) {
	reason := strings.TrimSpace(in.Reason)

	if key := strings.TrimSpace(in.ViolationKey); key != "" {
		amount, err := w.catalog.PenaltyFor(key)
		if err != nil {
			return 0, "", err
		}
		if reason == "" {
			for _, v := range w.catalog.Violations() {
				if v.Key == key {
					reason = v.Label
					break
				}
			}
		}
		return amount, reason, nil
	}

	if in.CustomPoints <= 0 {
		return 0, "", OpError{Op: op, Kind: ErrInvalidPoints, Msg: "custom amount must be positive"}
	}
	if reason == "" {
		return 0, "", OpError{Op: op, Kind: ErrInvalidInput, Msg: "reason required for custom deductions"}
	}
	return in.CustomPoints, reason, nil
}

// RequestDeduction applies the deduction immediately when the requester holds
// direct authority, otherwise returns a pending Request for the caller to
// persist. No points move in the queued case.
func (w Workflow) RequestDeduction(requesterID string, auth Authority, target points.Member, in DeductionInput, now time.Time) (Outcome, error) {
	const op = "discipline.RequestDeduction"

	if strings.TrimSpace(requesterID) == "" || strings.TrimSpace(target.ID) == "" {
		return Outcome{}, OpError{Op: op, Kind: ErrInvalidInput}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	amount, reason, err := w.resolveAmount(op, in)
	if err != nil {
		return Outcome{}, err
	}

	if auth.CanDeductDirectly {
		res, err := w.engine.ApplyDelta(target, -amount, reason, requesterID, now)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeApplied, Applied: &res}, nil
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Outcome{}, err
	}
	req := Request{
		ID:          id,
		TargetID:    target.ID,
		RequestedBy: requesterID,
		Points:      amount,
		Reason:      reason,
		CreatedAt:   now,
		Status:      StatusPending,
	}
	return Outcome{Kind: OutcomeQueued, Request: &req}, nil
}

// DecideRequest settles a pending request. Approval applies the queued
// deduction with the reviewer as the awarding actor; rejection moves no
// points. Either way the review fields are stamped exactly once.
func (w Workflow) DecideRequest(req Request, reviewerID string, decision Decision, note string, target points.Member, now time.Time) (Outcome, error) {
	const op = "discipline.DecideRequest"

	if strings.TrimSpace(reviewerID) == "" {
		return Outcome{}, OpError{Op: op, Kind: ErrInvalidInput}
	}
	if req.Status != StatusPending {
		return Outcome{}, OpError{Op: op, Kind: ErrAlreadyDecided, Msg: string(req.Status)}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	reviewedAt := now
	decided := req
	decided.ReviewedBy = &reviewerID
	decided.ReviewedAt = &reviewedAt
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		decided.ReviewNote = &trimmed
	}

	switch decision {
	case DecisionApprove:
		if target.ID != req.TargetID {
			return Outcome{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "target does not match request"}
		}
		res, err := w.engine.ApplyDelta(target, -req.Points, req.Reason, reviewerID, now)
		if err != nil {
			return Outcome{}, err
		}
		decided.Status = StatusApproved
		return Outcome{Kind: OutcomeApplied, Applied: &res, Request: &decided}, nil

	case DecisionReject:
		decided.Status = StatusRejected
		return Outcome{Kind: OutcomeRejected, Request: &decided}, nil

	default:
		return Outcome{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "unknown decision"}
	}
}
