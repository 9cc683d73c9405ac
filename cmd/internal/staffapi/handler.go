// Package staffapi exposes the dashboard's JSON endpoints for the roster,
// point deductions, and the activity log.
//
// Authentication is out of scope: requests arrive with the acting staff
// member's id in the X-Actor-ID header, set by the fronting auth layer, and
// the handler resolves that id to authority flags via AuthorityResolver.
package staffapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/discipline"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
	"crewdeck/cmd/points/ids"
)

const maxBodyBytes = 64 << 10

// Handler wires the staff HTTP endpoints to the roster and discipline layers.
type Handler struct {
	log      *slog.Logger
	members  roster.Store
	svc      *discipline.Service
	sink     audit.Sink
	resolver AuthorityResolver
	rules    points.Rules

	nowFn func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithNow overrides the handler clock (tests).
func WithNow(fn func() time.Time) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.nowFn = fn
		}
	}
}

// NewHandler constructs the staff API handler.
func NewHandler(log *slog.Logger, members roster.Store, svc *discipline.Service, sink audit.Sink, resolver AuthorityResolver, rules points.Rules, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		log:      log,
		members:  members,
		svc:      svc,
		sink:     sink,
		resolver: resolver,
		rules:    rules,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Register wires staff routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /v1/members", h.handleCreateMember)
	mux.HandleFunc("GET /v1/members", h.handleListMembers)
	mux.HandleFunc("GET /v1/members/{id}", h.handleGetMember)
	mux.HandleFunc("GET /v1/members/{id}/audit", h.handleMemberAudit)
	mux.HandleFunc("POST /v1/members/{id}/award", h.handleAward)
	mux.HandleFunc("POST /v1/members/{id}/activity", h.handleActivity)
	mux.HandleFunc("POST /v1/deductions", h.handleRequestDeduction)
	mux.HandleFunc("GET /v1/deductions", h.handleListDeductions)
	mux.HandleFunc("POST /v1/deductions/{id}/decision", h.handleDecision)
	mux.HandleFunc("GET /v1/violations", h.handleViolations)
	mux.HandleFunc("GET /v1/ranks", h.handleRanks)
}

func (h *Handler) actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID header required")
		return "", false
	}
	return actor, true
}

// writeDomainError maps typed domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case roster.IsNotFound(err) || discipline.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case roster.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", "record already exists")
	case discipline.IsAlreadyDecided(err):
		writeError(w, http.StatusConflict, "already_decided", "request was already decided")
	case points.IsUnknownViolation(err):
		writeError(w, http.StatusBadRequest, "unknown_violation", "violation key is not in the catalog")
	case discipline.IsInvalidPoints(err):
		writeError(w, http.StatusBadRequest, "invalid_points", "point amount must be positive")
	case points.IsInvalidDelta(err):
		writeError(w, http.StatusBadRequest, "invalid_delta", "point delta must be non-zero")
	default:
		h.log.Error("api.internal", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req createMemberRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "username required")
		return
	}
	if req.Points < 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "points must be non-negative")
		return
	}

	rank := points.Rank(strings.TrimSpace(req.Rank))
	switch rank {
	case "":
		rank = h.rules.Table.RankForPoints(req.Points)
	case points.RankOwner:
		// Owner is assignable at creation; its balance is unconstrained.
	default:
		valid := false
		for _, tier := range h.rules.Table.Tiers() {
			if tier.Name == rank {
				valid = true
				break
			}
		}
		if !valid {
			writeError(w, http.StatusBadRequest, "invalid_input", "unknown rank")
			return
		}
	}

	now := h.nowFn()
	id, err := ids.NewULID(now)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	m, err := h.members.Create(r.Context(), points.Member{
		ID:           id,
		Username:     username,
		Rank:         rank,
		Points:       req.Points,
		LastActiveAt: now,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.log.Info("member.create", "id", m.ID, "username", m.Username, "by", actor)
	writeJSON(w, http.StatusCreated, toMemberResponse(m, false))
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m, true))
}

func (h *Handler) handleMemberAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sink.ListByTarget(r.Context(), r.PathValue("id"), 0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponse(entries))
}

func (h *Handler) handleAward(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req awardRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	res, err := h.svc.Award(r.Context(), actor, r.PathValue("id"), req.Points, strings.TrimSpace(req.Reason))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangeResponse(res))
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actorID(w, r); !ok {
		return
	}
	if err := h.members.Touch(r.Context(), r.PathValue("id"), h.nowFn()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRequestDeduction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req deductionRequestBody
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if strings.TrimSpace(req.TargetID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "target_id required")
		return
	}

	auth, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out, err := h.svc.RequestDeduction(r.Context(), actor, auth, req.TargetID, discipline.DeductionInput{
		ViolationKey: req.ViolationKey,
		CustomPoints: req.Points,
		Reason:       req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if out.Kind == discipline.OutcomeQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, toOutcomeResponse(out))
}

func (h *Handler) handleListDeductions(w http.ResponseWriter, r *http.Request) {
	status := discipline.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	if status == "" {
		status = discipline.StatusPending
	}
	switch status {
	case discipline.StatusPending, discipline.StatusApproved, discipline.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown status")
		return
	}

	var (
		requests []discipline.Request
		err      error
	)
	if status == discipline.StatusPending {
		requests, err = h.svc.PendingRequests(r.Context())
	} else {
		requests, err = h.svc.RequestsByStatus(r.Context(), status)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req decisionRequestBody
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	decision := discipline.Decision(strings.TrimSpace(req.Decision))
	if decision != discipline.DecisionApprove && decision != discipline.DecisionReject {
		writeError(w, http.StatusBadRequest, "invalid_input", "decision must be approve or reject")
		return
	}

	auth, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !auth.CanDeductDirectly {
		writeError(w, http.StatusForbidden, "forbidden", "reviewer authority required")
		return
	}

	out, err := h.svc.Decide(r.Context(), r.PathValue("id"), actor, decision, req.Note)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}

func (h *Handler) handleViolations(w http.ResponseWriter, r *http.Request) {
	violations := h.rules.Catalog.Violations()
	out := make([]violationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, violationResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRanks(w http.ResponseWriter, r *http.Request) {
	tiers := h.rules.Table.Tiers()
	out := make([]rankTierResponse, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, rankTierResponse{Name: string(tier.Name), MinPoints: tier.MinPoints})
	}
	writeJSON(w, http.StatusOK, out)
}
