package staffapi

import (
	"context"

	"crewdeck/cmd/internal/discipline"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/points"
)

// AuthorityResolver resolves an actor's permission flags. Deciding who may
// deduct is the community's permission system's job; the engine only consumes
// the resolved flags.
type AuthorityResolver interface {
	Resolve(ctx context.Context, actorID string) (discipline.Authority, error)
}

// RankAuthorityResolver derives authority from the actor's roster record:
// Owner and Co-Owner deduct directly, as does any actor id on the
// manage-points allowlist.
type RankAuthorityResolver struct {
	members      roster.Store
	managePoints map[string]bool
}

// NewRankAuthorityResolver constructs a resolver. managePoints lists actor
// ids granted the manage_points capability outside the top ranks.
func NewRankAuthorityResolver(members roster.Store, managePoints []string) *RankAuthorityResolver {
	allow := make(map[string]bool, len(managePoints))
	for _, id := range managePoints {
		if id != "" {
			allow[id] = true
		}
	}
	return &RankAuthorityResolver{members: members, managePoints: allow}
}

// Resolve returns the actor's authority flags. Unknown actors get no
// authority rather than an error: their request is simply queued for review.
func (r *RankAuthorityResolver) Resolve(ctx context.Context, actorID string) (discipline.Authority, error) {
	if r.managePoints[actorID] {
		return discipline.Authority{CanDeductDirectly: true}, nil
	}

	m, err := r.members.Get(ctx, actorID)
	if err != nil {
		if roster.IsNotFound(err) {
			return discipline.Authority{}, nil
		}
		return discipline.Authority{}, err
	}

	direct := m.Rank == points.RankOwner || m.Rank == points.RankCoOwner
	return discipline.Authority{CanDeductDirectly: direct}, nil
}
