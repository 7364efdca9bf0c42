package engine

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
)

// ContentCalendar answers schedule questions about a plan's meal content from
// a snapshot taken at request time. The resolver composes over it without
// knowing how content is anchored (live plans run on their calendar dates,
// followed templates on the follow date).
type ContentCalendar interface {
	// HasContentOn reports whether the plan serves content on the given date.
	HasContentOn(planID primitive.ObjectID, date time.Time) bool
	// NextContentStart returns the first date strictly after the given date on
	// which the plan will begin serving content, or nil if it never will.
	NextContentStart(planID primitive.ObjectID, after time.Time) *time.Time
}

// ResolveToday picks the single plan whose content the caller should see
// today, from the plans they actively follow. Plans serving content today win;
// among them the earliest live start date goes first, dated plans beat
// dateless ones, and ids break the remaining ties. With no content today the
// nearest upcoming start wins instead. The result depends only on the inputs,
// so re-reads within a day return the same plan.
func ResolveToday(followed []domain.Plan, today time.Time, cal ContentCalendar) *domain.Plan {
	var current *domain.Plan
	for i := range followed {
		if !cal.HasContentOn(followed[i].ID, today) {
			continue
		}
		if current == nil || todayCandidateLess(&followed[i], current) {
			current = &followed[i]
		}
	}
	if current != nil {
		p := *current
		return &p
	}

	var upcoming *domain.Plan
	var upcomingStart time.Time
	for i := range followed {
		next := cal.NextContentStart(followed[i].ID, today)
		if next == nil {
			continue
		}
		switch {
		case upcoming == nil,
			next.Before(upcomingStart),
			next.Equal(upcomingStart) && followed[i].ID.Hex() < upcoming.ID.Hex():
			upcoming = &followed[i]
			upcomingStart = *next
		}
	}
	if upcoming != nil {
		p := *upcoming
		return &p
	}
	return nil
}

func todayCandidateLess(a, b *domain.Plan) bool {
	switch {
	case a.LiveStartDate != nil && b.LiveStartDate != nil:
		if !a.LiveStartDate.Equal(*b.LiveStartDate) {
			return a.LiveStartDate.Before(*b.LiveStartDate)
		}
	case a.LiveStartDate != nil:
		return true
	case b.LiveStartDate != nil:
		return false
	}
	return a.ID.Hex() < b.ID.Hex()
}
