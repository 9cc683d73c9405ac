package points

import "fmt"

// RankTier is one rank table entry: a tier name and the minimum point
// balance required to hold it.
type RankTier struct {
	Name      Rank
	MinPoints int
}

// RankTable is the ordered list of active staff tiers, highest floor first.
// The lowest tier's floor is always 0. Owner and Removed are not table
// entries: Owner sits above the table and never recomputes, Removed is the
// terminal state below the lowest floor.
type RankTable struct {
	tiers []RankTier
}

// DefaultRankTable returns the published staff ladder.
func DefaultRankTable() RankTable {
	t, err := NewRankTable([]RankTier{
		{Name: RankCoOwner, MinPoints: 500},
		{Name: RankAdmin, MinPoints: 400},
		{Name: RankJrAdmin, MinPoints: 300},
		{Name: RankModerator, MinPoints: 250},
		{Name: RankJrModerator, MinPoints: 200},
		{Name: RankSupporter, MinPoints: 150},
		{Name: RankJrSupporter, MinPoints: 0},
	})
	if err != nil {
		// The built-in table is validated by tests; this cannot happen.
		panic(err)
	}
	return t
}

// NewRankTable validates and builds a rank table.
// Tiers must be ordered by strictly descending floor, the lowest floor must
// be 0, and names must be unique and must not shadow Owner or Removed.
func NewRankTable(tiers []RankTier) (RankTable, error) {
	op := "points.NewRankTable"
	if len(tiers) == 0 {
		return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: "empty tier list"}
	}
	seen := make(map[Rank]bool, len(tiers))
	for i, tier := range tiers {
		if tier.Name == "" || tier.Name == RankOwner || tier.Name == RankRemoved {
			return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: fmt.Sprintf("invalid tier name %q", tier.Name)}
		}
		if seen[tier.Name] {
			return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: fmt.Sprintf("duplicate tier %q", tier.Name)}
		}
		seen[tier.Name] = true
		if tier.MinPoints < 0 {
			return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: fmt.Sprintf("negative floor for %q", tier.Name)}
		}
		if i > 0 && tier.MinPoints >= tiers[i-1].MinPoints {
			return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: "tiers must have strictly descending floors"}
		}
	}
	if tiers[len(tiers)-1].MinPoints != 0 {
		return RankTable{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: "lowest tier floor must be 0"}
	}
	cp := make([]RankTier, len(tiers))
	copy(cp, tiers)
	return RankTable{tiers: cp}, nil
}

// Tiers returns a copy of the tier list, highest floor first.
func (t RankTable) Tiers() []RankTier {
	cp := make([]RankTier, len(t.tiers))
	copy(cp, t.tiers)
	return cp
}

// RankForPoints returns the highest tier whose floor is <= pts.
// pts is expected to be a clamped (non-negative) balance; since the lowest
// floor is 0 every valid balance maps to an active tier. A negative input
// maps to Removed.
func (t RankTable) RankForPoints(pts int) Rank {
	for _, tier := range t.tiers {
		if pts >= tier.MinPoints {
			return tier.Name
		}
	}
	return RankRemoved
}

// index places a rank on the ladder: Owner above everything, table tiers by
// position, Removed below everything, unknown names below Removed never occur
// on records the engine produced.
func (t RankTable) index(r Rank) int {
	if r == RankOwner {
		return -1
	}
	for i, tier := range t.tiers {
		if tier.Name == r {
			return i
		}
	}
	return len(t.tiers)
}

// Outranks reports whether a is a strictly higher rank than b.
func (t RankTable) Outranks(a, b Rank) bool {
	return t.index(a) < t.index(b)
}
