package staffapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/discipline"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
)

type testEnv struct {
	mux     *http.ServeMux
	members roster.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	members := roster.NewInMemoryStore()
	requests := discipline.NewInMemoryStore()
	sink := audit.NewInMemorySink()
	rules := points.DefaultRules()

	workflow := discipline.NewWorkflow(points.NewEngine(rules.Table), rules.Catalog)
	svc, err := discipline.NewService(log, workflow, members, requests, sink)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	resolver := NewRankAuthorityResolver(members, nil)
	h := NewHandler(log, members, svc, sink, resolver, rules,
		WithNow(func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }))

	mux := http.NewServeMux()
	h.Register(mux)

	seed := []points.Member{
		{ID: "owner-1", Username: "falcon", Rank: points.RankOwner, Points: 0},
		{ID: "co-1", Username: "kestrel", Rank: points.RankCoOwner, Points: 520},
		{ID: "mod-1", Username: "osprey", Rank: points.RankModerator, Points: 260},
		{ID: "mod-2", Username: "harrier", Rank: points.RankModerator, Points: 255},
	}
	for _, m := range seed {
		if _, err := members.Create(context.Background(), m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return testEnv{mux: mux, members: members}
}

func (e testEnv) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateMember(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/members", "owner-1",
		map[string]any{"username": "merlin", "points": 320})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	m := decodeBody[memberResponse](t, rec)
	if m.Rank != string(points.RankJrAdmin) {
		t.Fatalf("rank=%q want computed Jr. Admin", m.Rank)
	}
	if m.ID == "" {
		t.Fatalf("missing id")
	}

	dup := env.do(t, http.MethodPost, "/v1/members", "owner-1",
		map[string]any{"username": "MERLIN"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d", dup.Code)
	}
}

func TestCreateMember_RequiresActor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/members", "", map[string]any{"username": "merlin"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", rec.Code)
	}
}

func TestDirectDeduction_AppliedImmediately(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/deductions", "co-1",
		map[string]any{"target_id": "mod-1", "points": 10, "reason": "Missed shift"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	out := decodeBody[outcomeResponse](t, rec)
	if out.Kind != string(discipline.OutcomeApplied) {
		t.Fatalf("kind=%q", out.Kind)
	}
	if out.Request != nil {
		t.Fatalf("direct application must not create a request")
	}
	if out.Applied.Member.Points != 250 {
		t.Fatalf("points=%d want=250", out.Applied.Member.Points)
	}
}

func TestQueuedDeduction_ApprovedByOwner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	// Moderator lacks direct authority: request is queued, no points move.
	rec := env.do(t, http.MethodPost, "/v1/deductions", "mod-2",
		map[string]any{"target_id": "mod-1", "violation_key": "harassment"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	queued := decodeBody[outcomeResponse](t, rec)
	if queued.Kind != string(discipline.OutcomeQueued) || queued.Request == nil {
		t.Fatalf("outcome: %+v", queued)
	}

	mid, _ := env.members.Get(context.Background(), "mod-1")
	if mid.Points != 260 {
		t.Fatalf("points moved before approval: %d", mid.Points)
	}

	list := env.do(t, http.MethodGet, "/v1/deductions", "owner-1", nil)
	pending := decodeBody[[]requestResponse](t, list)
	if len(pending) != 1 || pending[0].Status != string(discipline.StatusPending) {
		t.Fatalf("pending list: %+v", pending)
	}

	dec := env.do(t, http.MethodPost, "/v1/deductions/"+queued.Request.ID+"/decision", "owner-1",
		map[string]any{"decision": "approve", "note": "confirmed"})
	if dec.Code != http.StatusOK {
		t.Fatalf("decision status=%d body=%s", dec.Code, dec.Body.String())
	}

	after, _ := env.members.Get(context.Background(), "mod-1")
	if after.Points != 245 {
		t.Fatalf("points=%d want=245 (harassment is 15)", after.Points)
	}

	// One-shot: a second decision conflicts.
	again := env.do(t, http.MethodPost, "/v1/deductions/"+queued.Request.ID+"/decision", "owner-1",
		map[string]any{"decision": "reject"})
	if again.Code != http.StatusConflict {
		t.Fatalf("second decision status=%d want=409", again.Code)
	}
}

func TestDecision_RequiresReviewerAuthority(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/deductions", "mod-2",
		map[string]any{"target_id": "mod-1", "violation_key": "spam"})
	queued := decodeBody[outcomeResponse](t, rec)

	forbidden := env.do(t, http.MethodPost, "/v1/deductions/"+queued.Request.ID+"/decision", "mod-2",
		map[string]any{"decision": "approve"})
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("status=%d want=403", forbidden.Code)
	}
}

func TestDeduction_UnknownViolation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/deductions", "co-1",
		map[string]any{"target_id": "mod-1", "violation_key": "time-travel"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error.Code != "unknown_violation" {
		t.Fatalf("code=%q", resp.Error.Code)
	}
}

func TestAwardAndAudit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/members/mod-1/award", "owner-1",
		map[string]any{"points": 45, "reason": "Event hosting"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	change := decodeBody[changeResponse](t, rec)
	if change.Member.Points != 305 || change.NewRank != string(points.RankJrAdmin) {
		t.Fatalf("change: %+v", change)
	}

	auditRec := env.do(t, http.MethodGet, "/v1/members/mod-1/audit", "owner-1", nil)
	entries := decodeBody[[]auditEntryResponse](t, auditRec)
	if len(entries) != 1 || entries[0].Action != audit.ActionPointsAwarded {
		t.Fatalf("audit: %+v", entries)
	}
}

func TestStaticTables(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	ranks := decodeBody[[]rankTierResponse](t, env.do(t, http.MethodGet, "/v1/ranks", "", nil))
	if len(ranks) != 7 || ranks[0].Name != string(points.RankCoOwner) || ranks[0].MinPoints != 500 {
		t.Fatalf("ranks: %+v", ranks)
	}

	violations := decodeBody[[]violationResponse](t, env.do(t, http.MethodGet, "/v1/violations", "", nil))
	if len(violations) != 8 {
		t.Fatalf("violations: %+v", violations)
	}
}

func TestGetMember_IncludesHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.do(t, http.MethodPost, "/v1/members/mod-1/award", "owner-1",
		map[string]any{"points": 5, "reason": "Shift cover"}); rec.Code != http.StatusOK {
		t.Fatalf("award status=%d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/v1/members/mod-1", "", nil)
	m := decodeBody[memberResponse](t, rec)
	if len(m.History) != 1 || m.History[0].Amount != 5 {
		t.Fatalf("history: %+v", m.History)
	}

	missing := env.do(t, http.MethodGet, "/v1/members/ghost", "", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d want=404", missing.Code)
	}
}
