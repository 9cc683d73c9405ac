// Package schedule implements the periodic point jobs: the monthly balance
// reset and the inactivity decay sweep, plus the ticker loop that drives them.
package schedule

import (
	"time"

	"crewdeck/cmd/points"
)

// ResetReason is the history reason stamped by the monthly reset.
const ResetReason = "Monthly reset"

// SystemActor attributes scheduled changes in history and audit entries.
const SystemActor = "System"

// ResetSummary reports one monthly reset run for audit purposes.
type ResetSummary struct {
	MembersProcessed int
	PriorPoints      map[string]int
}

// ResetMember zeroes a member's balance while leaving rank untouched.
//
// This deliberately bypasses the engine's recompute-on-change behavior: a
// reset never demotes, even though a zero balance would otherwise map to the
// bottom of the ladder. Owner balances are zeroed like everyone else's. A
// second reset in the same period appends a zero-delta history entry but
// changes nothing else.
func ResetMember(m points.Member, now time.Time) points.Member {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entry := points.HistoryEntry{
		Amount:    -m.Points,
		Reason:    ResetReason,
		AwardedBy: SystemActor,
		At:        now,
	}
	history := make([]points.HistoryEntry, 0, len(m.History)+1)
	history = append(history, entry)
	history = append(history, m.History...)

	updated := m
	updated.Points = 0
	updated.History = history
	return updated
}
