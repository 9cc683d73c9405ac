package discipline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
	"crewdeck/cmd/points/ids"
)

// Observer receives applied change notifications (metrics).
type Observer interface {
	ObserveApplied(res points.Result)
}

// Publisher broadcasts activity entries to live dashboard clients.
type Publisher interface {
	Publish(e audit.Entry)
}

// Service drives the deduction workflow against the member and request
// stores, appends activity entries, and notifies observers. It is the single
// write path for point mutations, which serializes read-modify-write cycles
// per member through the store.
type Service struct {
	log      *slog.Logger
	workflow Workflow
	members  roster.Store
	requests Store
	sink     audit.Sink

	observer  Observer
	publisher Publisher
	nowFn     func() time.Time
}

// Option configures the Service.
type Option func(*Service) error

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) error {
		s.observer = o
		return nil
	}
}

// WithPublisher attaches a live feed publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) error {
		s.publisher = p
		return nil
	}
}

// WithNow overrides the service clock (tests).
func WithNow(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn == nil {
			return ErrInvalidInput
		}
		s.nowFn = fn
		return nil
	}
}

// NewService constructs a Service with safe defaults.
func NewService(log *slog.Logger, workflow Workflow, members roster.Store, requests Store, sink audit.Sink, opts ...Option) (*Service, error) {
	if log == nil || members == nil || requests == nil || sink == nil {
		return nil, ErrInvalidInput
	}
	s := &Service{
		log:      log,
		workflow: workflow,
		members:  members,
		requests: requests,
		sink:     sink,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// appendAudit writes an activity entry and pushes it to the live feed.
// Audit failures are logged, not propagated: the point mutation already
// happened and must not be rolled back by a log hiccup.
func (s *Service) appendAudit(ctx context.Context, actorID, targetID, action, detail string, now time.Time) {
	id, err := ids.NewULID(now)
	if err != nil {
		s.log.Error("audit.id.fail", "err", err)
		return
	}
	e := audit.Entry{
		ID:        id,
		ActorID:   actorID,
		TargetID:  targetID,
		Action:    action,
		Detail:    detail,
		CreatedAt: now,
	}
	if err := s.sink.Append(ctx, e); err != nil {
		s.log.Error("audit.append.fail", "action", action, "err", err)
		return
	}
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}

func (s *Service) observeApplied(res points.Result) {
	if s.observer != nil {
		s.observer.ObserveApplied(res)
	}
}

func changeDetail(res points.Result) string {
	amount := res.Member.History[0].Amount
	reason := res.Member.History[0].Reason
	switch {
	case res.Removed:
		return fmt.Sprintf("%+d points (%s); removed from staff", amount, reason)
	case res.Demoted:
		return fmt.Sprintf("%+d points (%s); demoted %s -> %s", amount, reason, res.PreviousRank, res.NewRank)
	default:
		return fmt.Sprintf("%+d points (%s); rank %s", amount, reason, res.NewRank)
	}
}

// RequestDeduction runs the deduction workflow for a target member and
// persists whatever it produced: an updated member for direct applications,
// or a pending request for later review.
func (s *Service) RequestDeduction(ctx context.Context, requesterID string, auth Authority, targetID string, in DeductionInput) (Outcome, error) {
	target, err := s.members.Get(ctx, targetID)
	if err != nil {
		if roster.IsNotFound(err) {
			return Outcome{}, OpError{Op: "discipline.RequestDeduction", Kind: ErrNotFound, Msg: "member " + targetID}
		}
		return Outcome{}, err
	}

	now := s.nowFn()
	outcome, err := s.workflow.RequestDeduction(requesterID, auth, target, in, now)
	if err != nil {
		return Outcome{}, err
	}

	switch outcome.Kind {
	case OutcomeApplied:
		if _, err := s.members.Update(ctx, outcome.Applied.Member); err != nil {
			return Outcome{}, err
		}
		s.observeApplied(*outcome.Applied)
		s.appendAudit(ctx, requesterID, targetID, audit.ActionDeductionApplied, changeDetail(*outcome.Applied), now)
		s.log.Info("deduction.apply",
			"target", targetID,
			"by", requesterID,
			"points", outcome.Applied.Member.Points,
			"demoted", outcome.Applied.Demoted,
			"removed", outcome.Applied.Removed,
		)

	case OutcomeQueued:
		if _, err := s.requests.Create(ctx, *outcome.Request); err != nil {
			return Outcome{}, err
		}
		s.appendAudit(ctx, requesterID, targetID, audit.ActionDeductionQueued,
			fmt.Sprintf("requested -%d points (%s)", outcome.Request.Points, outcome.Request.Reason), now)
		s.log.Info("deduction.queue", "target", targetID, "by", requesterID, "request", outcome.Request.ID)
	}

	return outcome, nil
}

// Decide settles a pending request by id and persists the decision; approval
// also persists the applied point change on the target member.
func (s *Service) Decide(ctx context.Context, requestID, reviewerID string, decision Decision, note string) (Outcome, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Outcome{}, err
	}
	target, err := s.members.Get(ctx, req.TargetID)
	if err != nil {
		if roster.IsNotFound(err) {
			return Outcome{}, OpError{Op: "discipline.Decide", Kind: ErrNotFound, Msg: "member " + req.TargetID}
		}
		return Outcome{}, err
	}

	now := s.nowFn()
	outcome, err := s.workflow.DecideRequest(req, reviewerID, decision, note, target, now)
	if err != nil {
		return Outcome{}, err
	}

	if _, err := s.requests.Update(ctx, *outcome.Request); err != nil {
		return Outcome{}, err
	}

	switch outcome.Kind {
	case OutcomeApplied:
		if _, err := s.members.Update(ctx, outcome.Applied.Member); err != nil {
			return Outcome{}, err
		}
		s.observeApplied(*outcome.Applied)
		s.appendAudit(ctx, reviewerID, req.TargetID, audit.ActionDeductionApproved, changeDetail(*outcome.Applied), now)
		s.log.Info("deduction.approve", "request", requestID, "by", reviewerID, "target", req.TargetID)

	case OutcomeRejected:
		s.appendAudit(ctx, reviewerID, req.TargetID, audit.ActionDeductionRejected,
			fmt.Sprintf("rejected -%d points (%s)", req.Points, req.Reason), now)
		s.log.Info("deduction.reject", "request", requestID, "by", reviewerID, "target", req.TargetID)
	}

	return outcome, nil
}

// Award adds points to a member directly. Amount must be positive.
func (s *Service) Award(ctx context.Context, actorID, targetID string, amount int, reason string) (points.Result, error) {
	const op = "discipline.Award"

	if amount <= 0 {
		return points.Result{}, OpError{Op: op, Kind: ErrInvalidPoints, Msg: "award must be positive"}
	}
	target, err := s.members.Get(ctx, targetID)
	if err != nil {
		if roster.IsNotFound(err) {
			return points.Result{}, OpError{Op: op, Kind: ErrNotFound, Msg: "member " + targetID}
		}
		return points.Result{}, err
	}

	now := s.nowFn()
	res, err := s.workflow.Engine().ApplyDelta(target, amount, reason, actorID, now)
	if err != nil {
		return points.Result{}, err
	}
	if _, err := s.members.Update(ctx, res.Member); err != nil {
		return points.Result{}, err
	}
	s.observeApplied(res)
	s.appendAudit(ctx, actorID, targetID, audit.ActionPointsAwarded, changeDetail(res), now)
	s.log.Info("points.award", "target", targetID, "by", actorID, "amount", amount)
	return res, nil
}

// PendingRequests lists queued requests awaiting review, oldest first.
func (s *Service) PendingRequests(ctx context.Context) ([]Request, error) {
	return s.requests.ListByStatus(ctx, StatusPending)
}

// RequestsByStatus lists requests in the given state, oldest first.
func (s *Service) RequestsByStatus(ctx context.Context, status Status) ([]Request, error) {
	return s.requests.ListByStatus(ctx, status)
}
