package discipline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
)

type recordedResult struct {
	results []points.Result
}

func (r *recordedResult) ObserveApplied(res points.Result) {
	r.results = append(r.results, res)
}

func newTestService(t *testing.T) (*Service, roster.Store, *audit.InMemorySink, *recordedResult) {
	t.Helper()

	members := roster.NewInMemoryStore()
	requests := NewInMemoryStore()
	sink := audit.NewInMemorySink()
	obs := &recordedResult{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(log, testWorkflow(), members, requests, sink,
		WithObserver(obs),
		WithNow(func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, members, sink, obs
}

func mustCreate(t *testing.T, members roster.Store, m points.Member) {
	t.Helper()
	if _, err := members.Create(context.Background(), m); err != nil {
		t.Fatalf("seed member: %v", err)
	}
}

func TestService_DirectDeductionPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, members, sink, obs := newTestService(t)
	mustCreate(t, members, moderator(260))

	out, err := svc.RequestDeduction(ctx, "co-owner-1", Authority{CanDeductDirectly: true}, "m-target",
		DeductionInput{ViolationKey: "unfair-punishment"})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}
	if out.Kind != OutcomeApplied {
		t.Fatalf("kind=%q", out.Kind)
	}

	stored, err := members.Get(ctx, "m-target")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Points != 250 || stored.Rank != points.RankModerator {
		t.Fatalf("stored member: %+v", stored)
	}
	if len(stored.History) != 1 || stored.History[0].Amount != -10 {
		t.Fatalf("history not persisted: %+v", stored.History)
	}

	entries, _ := sink.ListByTarget(ctx, "m-target", 10)
	if len(entries) != 1 || entries[0].Action != audit.ActionDeductionApplied {
		t.Fatalf("audit entries: %+v", entries)
	}
	if len(obs.results) != 1 {
		t.Fatalf("observer calls=%d want=1", len(obs.results))
	}
}

func TestService_QueuedThenApproved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, members, sink, _ := newTestService(t)
	mustCreate(t, members, moderator(260))

	out, err := svc.RequestDeduction(ctx, "mod-2", Authority{}, "m-target",
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}
	if out.Kind != OutcomeQueued {
		t.Fatalf("kind=%q", out.Kind)
	}

	// No points moved yet.
	mid, _ := members.Get(ctx, "m-target")
	if mid.Points != 260 {
		t.Fatalf("points moved before approval: %d", mid.Points)
	}

	pending, err := svc.PendingRequests(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("PendingRequests: %+v, %v", pending, err)
	}

	decided, err := svc.Decide(ctx, pending[0].ID, "owner-1", DecisionApprove, "confirmed")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Kind != OutcomeApplied {
		t.Fatalf("kind=%q", decided.Kind)
	}

	after, _ := members.Get(ctx, "m-target")
	if after.Points != 250 {
		t.Fatalf("points=%d want=250 (exactly the queued amount)", after.Points)
	}

	left, _ := svc.PendingRequests(ctx)
	if len(left) != 0 {
		t.Fatalf("request still pending after decision")
	}

	entries, _ := sink.ListByTarget(ctx, "m-target", 10)
	if len(entries) != 2 {
		t.Fatalf("audit entries=%d want=2 (queued + approved)", len(entries))
	}
	if entries[0].Action != audit.ActionDeductionApproved {
		t.Fatalf("newest entry action=%q", entries[0].Action)
	}
}

func TestService_DecideTwiceFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, members, _, _ := newTestService(t)
	mustCreate(t, members, moderator(260))

	out, err := svc.RequestDeduction(ctx, "mod-2", Authority{}, "m-target",
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}

	if _, err := svc.Decide(ctx, out.Request.ID, "owner-1", DecisionReject, ""); err != nil {
		t.Fatalf("first Decide: %v", err)
	}
	if _, err := svc.Decide(ctx, out.Request.ID, "owner-1", DecisionApprove, ""); !IsAlreadyDecided(err) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestService_UnknownMember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	_, err := svc.RequestDeduction(ctx, "owner-1", Authority{CanDeductDirectly: true}, "ghost",
		DeductionInput{CustomPoints: 5, Reason: "x"})
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Award(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, members, sink, _ := newTestService(t)
	mustCreate(t, members, moderator(290))

	res, err := svc.Award(ctx, "owner-1", "m-target", 15, "Event hosting")
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if res.Member.Points != 305 || res.Member.Rank != points.RankJrAdmin {
		t.Fatalf("award result: %+v", res.Member)
	}

	if _, err := svc.Award(ctx, "owner-1", "m-target", 0, "x"); !IsInvalidPoints(err) {
		t.Fatalf("expected ErrInvalidPoints, got %v", err)
	}

	entries, _ := sink.ListByTarget(ctx, "m-target", 10)
	if len(entries) != 1 || entries[0].Action != audit.ActionPointsAwarded {
		t.Fatalf("audit entries: %+v", entries)
	}
}
