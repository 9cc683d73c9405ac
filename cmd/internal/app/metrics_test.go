package app

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"crewdeck/cmd/internal/schedule"
	"crewdeck/cmd/points"
)

func TestMetricsObserveApplied(t *testing.T) {
	t.Parallel()

	m := NewMetrics()

	m.ObserveApplied(points.Result{
		Member: points.Member{
			History: []points.HistoryEntry{{Amount: -30, Reason: "Admin abuse"}},
		},
		Demoted: true,
	})
	m.ObserveApplied(points.Result{
		Member: points.Member{
			History: []points.HistoryEntry{{Amount: 20, Reason: "Event hosting"}},
		},
	})

	if got := testutil.ToFloat64(m.pointChanges.WithLabelValues("deduction")); got != 1 {
		t.Fatalf("deduction count=%v", got)
	}
	if got := testutil.ToFloat64(m.pointChanges.WithLabelValues("award")); got != 1 {
		t.Fatalf("award count=%v", got)
	}
	if got := testutil.ToFloat64(m.demotions); got != 1 {
		t.Fatalf("demotions=%v", got)
	}
	if got := testutil.ToFloat64(m.removals); got != 0 {
		t.Fatalf("removals=%v", got)
	}
}

func TestMetricsDecayPoints(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveApplied(points.Result{
		Member: points.Member{
			History: []points.HistoryEntry{{Amount: -15, Reason: schedule.DecayReason}},
		},
	})

	if got := testutil.ToFloat64(m.decayPoints); got != 15 {
		t.Fatalf("decayPoints=%v", got)
	}
	if got := testutil.ToFloat64(m.pointChanges.WithLabelValues("deduction")); got != 1 {
		t.Fatalf("deduction count=%v", got)
	}
}

func TestMetricsObserveReset(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveReset(12)
	m.ObserveReset(9)

	if got := testutil.ToFloat64(m.resets); got != 2 {
		t.Fatalf("resets=%v", got)
	}
	if got := testutil.ToFloat64(m.resetMembers); got != 21 {
		t.Fatalf("resetMembers=%v", got)
	}
}
