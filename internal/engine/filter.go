// internal/engine/filter.go
package engine

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
)

// ListFilter narrows a listing the caller is already allowed to see. It runs
// strictly after visibility: no combination of filter values can surface a
// plan the caller could not list unfiltered.
type ListFilter struct {
	Goal                string
	DifficultyLevel     string
	BudgetLevel         string
	DietaryRestrictions []string // Plan must carry every requested restriction
	CreatorID           *primitive.ObjectID
	SearchQuery         string // Case-insensitive substring on title/description
	PlanType            domain.PlanType
	Status              *domain.LiveStatus // Restricts to live plans in that derived state
	IsLiveActive        *bool              // Restricts to live plans with that flag
	DurationDaysMin     int
	DurationDaysMax     int
}

// ApplyFilter returns the plans matching every set field of the filter.
// Status and IsLiveActive only ever match live plans, so combining them with
// a non-live PlanType yields an empty result rather than an error.
func ApplyFilter(plans []domain.Plan, f ListFilter, today time.Time) []domain.Plan {
	out := make([]domain.Plan, 0, len(plans))
	for i := range plans {
		if matchesFilter(&plans[i], f, today) {
			out = append(out, plans[i])
		}
	}
	return out
}

func matchesFilter(p *domain.Plan, f ListFilter, today time.Time) bool {
	if f.Goal != "" && p.Goal != f.Goal {
		return false
	}
	if f.DifficultyLevel != "" && p.DifficultyLevel != f.DifficultyLevel {
		return false
	}
	if f.BudgetLevel != "" && p.BudgetLevel != f.BudgetLevel {
		return false
	}
	for _, want := range f.DietaryRestrictions {
		if !containsString(p.DietaryRestrictions, want) {
			return false
		}
	}
	if f.CreatorID != nil && p.CreatorID != *f.CreatorID {
		return false
	}
	if f.SearchQuery != "" {
		q := strings.ToLower(f.SearchQuery)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.PlanType != "" && p.PlanType != f.PlanType {
		return false
	}
	if f.DurationDaysMin > 0 && p.DurationDays < f.DurationDaysMin {
		return false
	}
	if f.DurationDaysMax > 0 && (p.DurationDays == 0 || p.DurationDays > f.DurationDaysMax) {
		return false
	}
	if f.IsLiveActive != nil {
		if !p.IsLive() || p.IsLiveActive != *f.IsLiveActive {
			return false
		}
	}
	if f.Status != nil {
		if !p.IsLive() {
			return false
		}
		state := domain.DeriveLiveState(p, today)
		if state.Status == domain.LiveStatusUnclassified || state.Status != *f.Status {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
