package schedule

import (
	"time"

	"crewdeck/cmd/points"
)

// Inactivity decay policy: nothing for the first week, then a flat rate per
// day beyond it.
const (
	DecayGraceDays    = 7
	DecayPointsPerDay = 5

	// DecayReason is the history reason stamped by the decay sweep.
	DecayReason = "Inactivity"
)

// DecaySummary reports one decay sweep.
type DecaySummary struct {
	MembersAffected int
	PointsDeducted  int
	Removed         int
}

// ComputeDecay returns the points to deduct from a member inactive as of
// asOf. Pure and side-effect free; elapsed time is floored to whole days.
func ComputeDecay(m points.Member, asOf time.Time) int {
	if m.LastActiveAt.IsZero() {
		return 0
	}
	days := int(asOf.Sub(m.LastActiveAt) / (24 * time.Hour))
	if days <= DecayGraceDays {
		return 0
	}
	return (days - DecayGraceDays) * DecayPointsPerDay
}
