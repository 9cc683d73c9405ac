package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
	"crewdeck/cmd/points/ids"
)

// ErrInvalidInput is returned for bad job construction arguments.
var ErrInvalidInput = errors.New("invalid_input")

// Observer receives job notifications (metrics).
type Observer interface {
	ObserveApplied(res points.Result)
	ObserveReset(processed int)
}

// Jobs runs the scheduled point operations against the member store.
type Jobs struct {
	log     *slog.Logger
	engine  points.Engine
	members roster.Store
	sink    audit.Sink

	observer Observer
}

// JobsOption configures Jobs.
type JobsOption func(*Jobs) error

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) JobsOption {
	return func(j *Jobs) error {
		j.observer = o
		return nil
	}
}

// NewJobs constructs the scheduled jobs.
func NewJobs(log *slog.Logger, engine points.Engine, members roster.Store, sink audit.Sink, opts ...JobsOption) (*Jobs, error) {
	if log == nil || members == nil || sink == nil {
		return nil, ErrInvalidInput
	}
	j := &Jobs{log: log, engine: engine, members: members, sink: sink}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(j); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (j *Jobs) appendAudit(ctx context.Context, targetID, action, detail string, now time.Time) {
	id, err := ids.NewULID(now)
	if err != nil {
		j.log.Error("audit.id.fail", "err", err)
		return
	}
	e := audit.Entry{
		ID:        id,
		ActorID:   SystemActor,
		TargetID:  targetID,
		Action:    action,
		Detail:    detail,
		CreatedAt: now,
	}
	if err := j.sink.Append(ctx, e); err != nil {
		j.log.Error("audit.append.fail", "action", action, "err", err)
	}
}

// RunMonthlyReset zeroes every member's balance while preserving rank and
// records one history and audit entry per member. Calling it twice in a
// period is harmless (0 -> 0); invoking it at most once per period is the
// scheduler's job.
func (j *Jobs) RunMonthlyReset(ctx context.Context, now time.Time) (ResetSummary, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	members, err := j.members.List(ctx)
	if err != nil {
		return ResetSummary{}, err
	}

	summary := ResetSummary{PriorPoints: make(map[string]int, len(members))}
	for _, m := range members {
		summary.PriorPoints[m.ID] = m.Points

		updated := ResetMember(m, now)
		if _, err := j.members.Update(ctx, updated); err != nil {
			return summary, err
		}
		summary.MembersProcessed++

		j.appendAudit(ctx, m.ID, audit.ActionMonthlyReset,
			fmt.Sprintf("balance reset from %d to 0; rank %s preserved", m.Points, m.Rank), now)
	}

	if j.observer != nil {
		j.observer.ObserveReset(summary.MembersProcessed)
	}
	j.log.Info("job.monthly_reset", "members", summary.MembersProcessed)
	return summary, nil
}

// RunInactivityDecay deducts points from members inactive beyond the grace
// period, routing each change through the engine so demotion and removal
// rules apply. Owner accounts are skipped: their balance is unconstrained, so
// decaying it records nothing useful.
func (j *Jobs) RunInactivityDecay(ctx context.Context, asOf time.Time) (DecaySummary, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	members, err := j.members.List(ctx)
	if err != nil {
		return DecaySummary{}, err
	}

	var summary DecaySummary
	for _, m := range members {
		if m.Rank == points.RankOwner || m.Rank == points.RankRemoved {
			continue
		}
		deduct := ComputeDecay(m, asOf)
		if deduct == 0 {
			continue
		}

		res, err := j.engine.ApplyDelta(m, -deduct, DecayReason, SystemActor, asOf)
		if err != nil {
			return summary, err
		}
		if _, err := j.members.Update(ctx, res.Member); err != nil {
			return summary, err
		}

		summary.MembersAffected++
		summary.PointsDeducted += deduct
		if res.Removed {
			summary.Removed++
		}
		if j.observer != nil {
			j.observer.ObserveApplied(res)
		}

		detail := fmt.Sprintf("-%d points for inactivity; rank %s", deduct, res.NewRank)
		if res.Removed {
			detail = fmt.Sprintf("-%d points for inactivity; removed from staff", deduct)
		}
		j.appendAudit(ctx, m.ID, audit.ActionInactivityDecay, detail, asOf)
	}

	j.log.Info("job.inactivity_decay",
		"affected", summary.MembersAffected,
		"deducted", summary.PointsDeducted,
		"removed", summary.Removed,
	)
	return summary, nil
}
