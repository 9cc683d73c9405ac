package staffapi

import (
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/discipline"
	"crewdeck/cmd/points"
)

type createMemberRequest struct {
	Username string `json:"username"`
	Rank     string `json:"rank,omitempty"`
	Points   int    `json:"points,omitempty"`
}

type awardRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

type deductionRequestBody struct {
	TargetID     string `json:"target_id"`
	ViolationKey string `json:"violation_key,omitempty"`
	Points       int    `json:"points,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type decisionRequestBody struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

type historyEntryResponse struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	AwardedBy string    `json:"awarded_by"`
	At        time.Time `json:"at"`
}

type memberResponse struct {
	ID           string                 `json:"id"`
	Username     string                 `json:"username"`
	Rank         string                 `json:"rank"`
	Points       int                    `json:"points"`
	LastActiveAt *time.Time             `json:"last_active_at,omitempty"`
	History      []historyEntryResponse `json:"history,omitempty"`
}

func toMemberResponse(m points.Member, withHistory bool) memberResponse {
	out := memberResponse{
		ID:       m.ID,
		Username: m.Username,
		Rank:     string(m.Rank),
		Points:   m.Points,
	}
	if !m.LastActiveAt.IsZero() {
		t := m.LastActiveAt
		out.LastActiveAt = &t
	}
	if withHistory {
		out.History = make([]historyEntryResponse, 0, len(m.History))
		for _, h := range m.History {
			out.History = append(out.History, historyEntryResponse(h))
		}
	}
	return out
}

type changeResponse struct {
	Member       memberResponse `json:"member"`
	PreviousRank string         `json:"previous_rank"`
	NewRank      string         `json:"new_rank"`
	Demoted      bool           `json:"demoted"`
	Removed      bool           `json:"removed"`
}

func toChangeResponse(res points.Result) changeResponse {
	return changeResponse{
		Member:       toMemberResponse(res.Member, false),
		PreviousRank: string(res.PreviousRank),
		NewRank:      string(res.NewRank),
		Demoted:      res.Demoted,
		Removed:      res.Removed,
	}
}

type requestResponse struct {
	ID          string     `json:"id"`
	TargetID    string     `json:"target_id"`
	RequestedBy string     `json:"requested_by"`
	Points      int        `json:"points"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      string     `json:"status"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote  *string    `json:"review_note,omitempty"`
}

func toRequestResponse(req discipline.Request) requestResponse {
	return requestResponse{
		ID:          req.ID,
		TargetID:    req.TargetID,
		RequestedBy: req.RequestedBy,
		Points:      req.Points,
		Reason:      req.Reason,
		CreatedAt:   req.CreatedAt,
		Status:      string(req.Status),
		ReviewedBy:  req.ReviewedBy,
		ReviewedAt:  req.ReviewedAt,
		ReviewNote:  req.ReviewNote,
	}
}

type outcomeResponse struct {
	Kind    string           `json:"kind"`
	Applied *changeResponse  `json:"applied,omitempty"`
	Request *requestResponse `json:"request,omitempty"`
}

func toOutcomeResponse(out discipline.Outcome) outcomeResponse {
	resp := outcomeResponse{Kind: string(out.Kind)}
	if out.Applied != nil {
		c := toChangeResponse(*out.Applied)
		resp.Applied = &c
	}
	if out.Request != nil {
		r := toRequestResponse(*out.Request)
		resp.Request = &r
	}
	return resp
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func toAuditResponse(entries []audit.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse(e))
	}
	return out
}

type violationResponse struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Penalty int    `json:"penalty"`
}

type rankTierResponse struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}
