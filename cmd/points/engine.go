package points

import "time"

// Result describes one applied point change.
type Result struct {
	Member Member

	PreviousRank Rank
	NewRank      Rank

	// Demoted is true when the new rank is a strictly lower active tier.
	// Removed is true when the change pushed the member off the ladder.
	Demoted bool
	Removed bool
}

// Engine applies point deltas to member records and recomputes rank against
// its table. It holds no mutable state and performs no I/O.
type Engine struct {
	table RankTable
}

// NewEngine constructs an Engine over the given rank table.
func NewEngine(table RankTable) Engine {
	return Engine{table: table}
}

// Table returns the engine's rank table.
func (e Engine) Table() RankTable { return e.table }

// ApplyDelta applies a point delta to a member and returns the updated record
// plus a change descriptor. delta may be negative (deduction) or positive
// (award); a zero delta is rejected with ErrInvalidDelta to keep the history
// meaningful. A zero now defaults to time.Now().UTC().
//
// Non-Owner balances clamp at 0. The rank boundary rule: a clamped balance of
// 0 still maps to the lowest active tier; a member is removed only when a
// deduction arrives while the balance is already 0, i.e. there is nothing
// left to take. Owner records the history entry but skips both the clamp and
// the rank recompute.
func (e Engine) ApplyDelta(m Member, delta int, reason, awardedBy string, now time.Time) (Result, error) {
	if delta == 0 {
		return Result{}, OpError{Op: "points.ApplyDelta", Kind: ErrInvalidDelta, Msg: "zero delta"}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entry := HistoryEntry{Amount: delta, Reason: reason, AwardedBy: awardedBy, At: now}
	history := make([]HistoryEntry, 0, len(m.History)+1)
	history = append(history, entry)
	history = append(history, m.History...)

	updated := m
	updated.History = history

	if m.Rank == RankOwner {
		updated.Points = m.Points + delta
		return Result{
			Member:       updated,
			PreviousRank: RankOwner,
			NewRank:      RankOwner,
		}, nil
	}

	removed := m.Points == 0 && delta < 0

	newPoints := m.Points + delta
	if newPoints < 0 {
		newPoints = 0
	}

	newRank := e.table.RankForPoints(newPoints)
	if removed {
		newRank = RankRemoved
	}

	updated.Points = newPoints
	updated.Rank = newRank

	return Result{
		Member:       updated,
		PreviousRank: m.Rank,
		NewRank:      newRank,
		Demoted:      !removed && e.table.Outranks(m.Rank, newRank),
		Removed:      removed,
	}, nil
}
