package points

import "time"

// Rank is an ordered staff level name.
type Rank string

// Staff ranks, highest first. Owner sits above the rank table and is exempt
// from point rules; Removed sits below the lowest tier and is terminal.
const (
	RankOwner       Rank = "Owner"
	RankCoOwner     Rank = "Co-Owner"
	RankAdmin       Rank = "Admin"
	RankJrAdmin     Rank = "Jr. Admin"
	RankModerator   Rank = "Moderator"
	RankJrModerator Rank = "Jr. Moderator"
	RankSupporter   Rank = "Supporter"
	RankJrSupporter Rank = "Jr. Supporter"
	RankRemoved     Rank = "Removed"
)

// Member is a staff account record. The engine never mutates a Member in
// place; it returns a fresh value with a fresh history slice.
type Member struct {
	ID           string
	Username     string
	Rank         Rank
	Points       int
	LastActiveAt time.Time

	// History is the append-only audit trail of point changes, newest first.
	History []HistoryEntry
}

// HistoryEntry is one point change on a member's audit trail.
type HistoryEntry struct {
	Amount    int
	Reason    string
	AwardedBy string
	At        time.Time
}
