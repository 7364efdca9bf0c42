// internal/engine/visibility.go
package engine

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
)

// AccessMode selects which visibility rule set applies to a read.
type AccessMode string

const (
	ModeList   AccessMode = "list"   // Browsing surfaces: listings, dashboard, categorized views
	ModeDetail AccessMode = "detail" // Direct fetch by id
	ModeToday  AccessMode = "today"  // Today's-content surface
)

// FollowSet is the set of plan ids the caller actively follows, captured once
// per request so every plan in a response is judged against the same snapshot.
type FollowSet map[primitive.ObjectID]struct{}

func NewFollowSet(planIDs []primitive.ObjectID) FollowSet {
	s := make(FollowSet, len(planIDs))
	for _, id := range planIDs {
		s[id] = struct{}{}
	}
	return s
}

func (s FollowSet) Contains(planID primitive.ObjectID) bool {
	_, ok := s[planID]
	return ok
}

// Visible decides whether the caller may see the plan on a surface of the
// given mode. Tenant scope and the active flag are preconditions: a plan from
// another gym or a deactivated plan is invisible to everyone, its creator
// included.
//
// Detail is deliberately broader than list: an active follower of a private
// plan can fetch it by id, but it never appears in their listings. Today is
// narrower still: only following grants it, so even the creator sees no
// today content for a plan they did not follow.
func Visible(p *domain.Plan, caller domain.CallerContext, mode AccessMode, follows FollowSet) bool {
	if p.GymID != caller.GymID {
		return false
	}
	if !p.IsActive {
		return false
	}

	switch mode {
	case ModeToday:
		return follows.Contains(p.ID)
	case ModeDetail:
		return p.IsPublic || caller.Owns(p) || follows.Contains(p.ID)
	default:
		return p.IsPublic || caller.Owns(p)
	}
}
