package schedule

import (
	"testing"
	"time"

	"crewdeck/cmd/points"
)

func inactiveMember(id string, rank points.Rank, pts int, lastActive time.Time) points.Member {
	return points.Member{
		ID:           id,
		Username:     "u-" + id,
		Rank:         rank,
		Points:       pts,
		LastActiveAt: lastActive,
	}
}

func TestComputeDecay(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		daysAgo int
		want    int
	}{
		{name: "active today", daysAgo: 0, want: 0},
		{name: "within grace", daysAgo: 5, want: 0},
		{name: "grace boundary", daysAgo: 7, want: 0},
		{name: "one day past grace", daysAgo: 8, want: 5},
		{name: "ten days inactive", daysAgo: 10, want: 15},
		{name: "month inactive", daysAgo: 30, want: 115},
	}

	for _, tc := range cases {
		m := inactiveMember("m1", points.RankSupporter, 160, asOf.AddDate(0, 0, -tc.daysAgo))
		if got := ComputeDecay(m, asOf); got != tc.want {
			t.Fatalf("%s: ComputeDecay=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestComputeDecay_FlooredToWholeDays(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)

	// 8 days minus one hour is still 7 whole days: inside the grace period.
	m := inactiveMember("m1", points.RankSupporter, 160, asOf.Add(-8*24*time.Hour+time.Hour))
	if got := ComputeDecay(m, asOf); got != 0 {
		t.Fatalf("ComputeDecay=%d want=0", got)
	}
}

func TestComputeDecay_NoRecordedActivity(t *testing.T) {
	t.Parallel()

	m := inactiveMember("m1", points.RankSupporter, 160, time.Time{})
	if got := ComputeDecay(m, time.Now().UTC()); got != 0 {
		t.Fatalf("ComputeDecay=%d want=0 for zero LastActiveAt", got)
	}
}
