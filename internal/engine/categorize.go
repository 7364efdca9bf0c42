package engine

import (
	"sort"
	"time"

	"fitgym/nutrition-app/internal/domain"
)

// DefaultCategoryLimit caps each category on shaped reads. Heavy followers get
// a bounded payload; full history stays reachable through the paginated list.
const DefaultCategoryLimit = 50

// CategorizedPlans groups plans by lifecycle family.
type CategorizedPlans struct {
	Template []domain.Plan `json:"template"`
	Live     []domain.Plan `json:"live"`
	Archived []domain.Plan `json:"archived"`
}

// SortPlans orders plans newest-first by creation time. Equal timestamps fall
// back to id order so repeated reads of the same snapshot agree.
func SortPlans(plans []domain.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if !plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].CreatedAt.After(plans[j].CreatedAt)
		}
		return plans[i].ID.Hex() < plans[j].ID.Hex()
	})
}

// Categorize splits plans into their lifecycle buckets, each sorted and capped
// to limit entries. A limit of 0 or less means uncapped.
func Categorize(plans []domain.Plan, limit int) CategorizedPlans {
	var out CategorizedPlans
	for _, p := range plans {
		switch p.PlanType {
		case domain.PlanTypeLive:
			out.Live = append(out.Live, p)
		case domain.PlanTypeArchived:
			out.Archived = append(out.Archived, p)
		default:
			out.Template = append(out.Template, p)
		}
	}
	SortPlans(out.Template)
	SortPlans(out.Live)
	SortPlans(out.Archived)
	out.Template = capPlans(out.Template, limit)
	out.Live = capPlans(out.Live, limit)
	out.Archived = capPlans(out.Archived, limit)
	return out
}

// Capped returns a copy with every bucket cut to limit entries. Buckets are
// already sorted, so the cut keeps the newest plans.
func (c CategorizedPlans) Capped(limit int) CategorizedPlans {
	return CategorizedPlans{
		Template: capPlans(c.Template, limit),
		Live:     capPlans(c.Live, limit),
		Archived: capPlans(c.Archived, limit),
	}
}

func capPlans(plans []domain.Plan, limit int) []domain.Plan {
	if limit > 0 && len(plans) > limit {
		return plans[:limit]
	}
	return plans
}

// FilterByLiveStatus keeps only live plans whose derived schedule state
// matches status on the given date. Non-live plans never match, and
// unclassified plans are dropped without comment: a plan the engine cannot
// classify must not ride along on a status-filtered read.
func FilterByLiveStatus(plans []domain.Plan, status domain.LiveStatus, today time.Time) []domain.Plan {
	out := make([]domain.Plan, 0, len(plans))
	for i := range plans {
		if !plans[i].IsLive() {
			continue
		}
		state := domain.DeriveLiveState(&plans[i], today)
		if state.Status == domain.LiveStatusUnclassified {
			continue
		}
		if state.Status == status {
			out = append(out, plans[i])
		}
	}
	return out
}
