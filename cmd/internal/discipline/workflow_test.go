package discipline

import (
	"testing"
	"time"

	"crewdeck/cmd/points"
)

func testWorkflow() Workflow {
	return NewWorkflow(points.NewEngine(points.DefaultRankTable()), points.DefaultCatalog())
}

func moderator(pts int) points.Member {
	return points.Member{
		ID:       "m-target",
		Username: "osprey",
		Rank:     points.RankModerator,
		Points:   pts,
	}
}

func TestRequestDeduction_DirectAuthorityApplies(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	out, err := w.RequestDeduction("co-owner-1", Authority{CanDeductDirectly: true}, moderator(260),
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"}, now)
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}
	if out.Kind != OutcomeApplied {
		t.Fatalf("kind=%q want=%q", out.Kind, OutcomeApplied)
	}
	if out.Request != nil {
		t.Fatalf("direct application must not create a request")
	}
	if out.Applied.Member.Points != 250 {
		t.Fatalf("points=%d want=250", out.Applied.Member.Points)
	}
}

func TestRequestDeduction_CatalogKeyResolvesPenaltyAndLabel(t *testing.T) {
	t.Parallel()

	w := testWorkflow()

	out, err := w.RequestDeduction("co-owner-1", Authority{CanDeductDirectly: true}, moderator(260),
		DeductionInput{ViolationKey: "harassment"}, time.Time{})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}
	if out.Applied.Member.Points != 245 {
		t.Fatalf("points=%d want=245 (harassment is 15)", out.Applied.Member.Points)
	}
	if out.Applied.Member.History[0].Reason != "Harassment" {
		t.Fatalf("reason=%q want catalog label", out.Applied.Member.History[0].Reason)
	}
}

func TestRequestDeduction_UnknownViolation(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	_, err := w.RequestDeduction("co-owner-1", Authority{CanDeductDirectly: true}, moderator(260),
		DeductionInput{ViolationKey: "time-travel"}, time.Time{})
	if !points.IsUnknownViolation(err) {
		t.Fatalf("expected ErrUnknownViolation, got %v", err)
	}
}

func TestRequestDeduction_InvalidCustomPoints(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	for _, amount := range []int{0, -5} {
		_, err := w.RequestDeduction("co-owner-1", Authority{CanDeductDirectly: true}, moderator(260),
			DeductionInput{CustomPoints: amount, Reason: "x"}, time.Time{})
		if !IsInvalidPoints(err) {
			t.Fatalf("CustomPoints=%d: expected ErrInvalidPoints, got %v", amount, err)
		}
	}
}

func TestRequestDeduction_WithoutAuthorityQueues(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	target := moderator(260)

	out, err := w.RequestDeduction("mod-2", Authority{}, target,
		DeductionInput{ViolationKey: "spam"}, now)
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}
	if out.Kind != OutcomeQueued {
		t.Fatalf("kind=%q want=%q", out.Kind, OutcomeQueued)
	}
	if out.Applied != nil {
		t.Fatalf("queued outcome must not carry an applied result")
	}
	req := out.Request
	if req.Status != StatusPending || req.Points != 5 || req.TargetID != target.ID || req.RequestedBy != "mod-2" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt=%v want=%v", req.CreatedAt, now)
	}
	if req.ReviewedBy != nil || req.ReviewedAt != nil || req.ReviewNote != nil {
		t.Fatalf("pending request must have empty review fields")
	}
}

func TestDecideRequest_Approve(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	now := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	target := moderator(260)

	queued, err := w.RequestDeduction("mod-2", Authority{}, target,
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"}, now)
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}

	decidedAt := now.Add(time.Hour)
	out, err := w.DecideRequest(*queued.Request, "owner-1", DecisionApprove, "confirmed", target, decidedAt)
	if err != nil {
		t.Fatalf("DecideRequest: %v", err)
	}
	if out.Kind != OutcomeApplied {
		t.Fatalf("kind=%q want=%q", out.Kind, OutcomeApplied)
	}
	if out.Applied.Member.Points != 250 {
		t.Fatalf("points=%d want=250 (exactly the queued amount)", out.Applied.Member.Points)
	}
	if out.Applied.Member.History[0].AwardedBy != "owner-1" {
		t.Fatalf("approval must attribute the change to the reviewer")
	}

	req := out.Request
	if req.Status != StatusApproved {
		t.Fatalf("status=%q want=%q", req.Status, StatusApproved)
	}
	if req.ReviewedBy == nil || *req.ReviewedBy != "owner-1" {
		t.Fatalf("ReviewedBy not stamped: %+v", req)
	}
	if req.ReviewedAt == nil || !req.ReviewedAt.Equal(decidedAt) {
		t.Fatalf("ReviewedAt not stamped: %+v", req)
	}
	if req.ReviewNote == nil || *req.ReviewNote != "confirmed" {
		t.Fatalf("ReviewNote not stamped: %+v", req)
	}
}

func TestDecideRequest_RejectMovesNoPoints(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	target := moderator(260)

	queued, err := w.RequestDeduction("mod-2", Authority{}, target,
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"}, time.Time{})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}

	out, err := w.DecideRequest(*queued.Request, "owner-1", DecisionReject, "not enough evidence", target, time.Time{})
	if err != nil {
		t.Fatalf("DecideRequest: %v", err)
	}
	if out.Kind != OutcomeRejected {
		t.Fatalf("kind=%q want=%q", out.Kind, OutcomeRejected)
	}
	if out.Applied != nil {
		t.Fatalf("rejection must not apply points")
	}
	if out.Request.Status != StatusRejected {
		t.Fatalf("status=%q want=%q", out.Request.Status, StatusRejected)
	}
}

func TestDecideRequest_OneShot(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	target := moderator(260)

	queued, err := w.RequestDeduction("mod-2", Authority{}, target,
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"}, time.Time{})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}

	first, err := w.DecideRequest(*queued.Request, "owner-1", DecisionReject, "", target, time.Time{})
	if err != nil {
		t.Fatalf("first decision: %v", err)
	}

	for _, d := range []Decision{DecisionApprove, DecisionReject} {
		if _, err := w.DecideRequest(*first.Request, "owner-1", d, "", target, time.Time{}); !IsAlreadyDecided(err) {
			t.Fatalf("second %q decision: expected ErrAlreadyDecided, got %v", d, err)
		}
	}
}

func TestDecideRequest_TargetMismatch(t *testing.T) {
	t.Parallel()

	w := testWorkflow()
	target := moderator(260)

	queued, err := w.RequestDeduction("mod-2", Authority{}, target,
		DeductionInput{CustomPoints: 10, Reason: "Missed shift"}, time.Time{})
	if err != nil {
		t.Fatalf("RequestDeduction: %v", err)
	}

	other := target
	other.ID = "m-other"
	if _, err := w.DecideRequest(*queued.Request, "owner-1", DecisionApprove, "", other, time.Time{}); err == nil {
		t.Fatalf("expected error for mismatched target")
	}
}
