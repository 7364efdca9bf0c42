package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrMealDayNotFound = errors.New("meal day not found")
)

// MealDayInput carries the content for one day of a plan.
type MealDayInput struct {
	DayNumber int
	Breakfast string
	Lunch     string
	Dinner    string
	Snacks    []string
	Notes     string
}

// --- Service Interface ---
type ContentService interface {
	UpsertMealDay(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, input MealDayInput) (*domain.MealDay, error)
	DeleteMealDay(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, dayNumber int) error
	ListMealDays(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) ([]domain.MealDay, error)
	// BuildCalendar snapshots the content schedules of the caller's followed
	// plans for one request's worth of evaluation.
	BuildCalendar(ctx context.Context, caller domain.CallerContext, follows []domain.FollowRelationship, plans []domain.Plan) (*PlanContentCalendar, error)
	GetMealDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) (*domain.MealDay, error)
}

// --- Service Implementation ---

// contentService implements the ContentService interface.
type contentService struct {
	mealDayRepo repository.MealDayRepository
	planRepo    repository.PlanRepository
	followRepo  repository.FollowRepository
}

// NewContentService creates a new instance of contentService.
func NewContentService(
	mealDayRepo repository.MealDayRepository,
	planRepo repository.PlanRepository,
	followRepo repository.FollowRepository,
) ContentService {
	return &contentService{
		mealDayRepo: mealDayRepo,
		planRepo:    planRepo,
		followRepo:  followRepo,
	}
}

// UpsertMealDay writes the content for one day of a plan the caller created.
func (s *contentService) UpsertMealDay(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, input MealDayInput) (*domain.MealDay, error) {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsArchived() {
		return nil, ErrArchivedImmutable
	}
	if input.DayNumber < 1 {
		return nil, fmt.Errorf("%w: day number must be 1 or greater", ErrPlanValidation)
	}
	if plan.DurationDays > 0 && input.DayNumber > plan.DurationDays {
		return nil, ErrMealDayOutOfRange
	}

	day := &domain.MealDay{
		PlanID:    plan.ID,
		GymID:     plan.GymID,
		DayNumber: input.DayNumber,
		Breakfast: input.Breakfast,
		Lunch:     input.Lunch,
		Dinner:    input.Dinner,
		Snacks:    input.Snacks,
		Notes:     input.Notes,
	}
	dayID, err := s.mealDayRepo.Upsert(ctx, day)
	if err != nil {
		return nil, err
	}
	day.ID = dayID
	return day, nil
}

// DeleteMealDay removes the content for one day of a plan the caller created.
func (s *contentService) DeleteMealDay(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, dayNumber int) error {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return err
	}
	if plan.IsArchived() {
		return ErrArchivedImmutable
	}

	err = s.mealDayRepo.DeleteByPlanAndDay(ctx, plan.ID, dayNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealDayNotFound
		}
		return err
	}
	return nil
}

// ListMealDays returns a plan's full content, gated like a detail read.
func (s *contentService) ListMealDays(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) ([]domain.MealDay, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	follows, err := callerFollowSet(ctx, s.followRepo, caller)
	if err != nil {
		return nil, err
	}
	if err := detailAccessError(plan, caller, follows); err != nil {
		return nil, err
	}
	return s.mealDayRepo.ListByPlan(ctx, plan.ID)
}

// GetMealDay fetches one content day. A missing day is nil, not an error:
// schedules legitimately have gaps.
func (s *contentService) GetMealDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) (*domain.MealDay, error) {
	day, err := s.mealDayRepo.GetByPlanAndDay(ctx, planID, dayNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return day, nil
}

// === Content calendar ===

// planSchedule is one followed plan's content timetable.
type planSchedule struct {
	anchor   time.Time        // Date of content day 1
	days     map[int]struct{} // Day numbers that have content
	servable bool
}

// PlanContentCalendar implements engine.ContentCalendar over a per-request
// snapshot. Live plans anchor on their calendar start date and serve content
// only while their schedule state allows it; template and archived plans
// anchor on the date the caller followed them.
type PlanContentCalendar struct {
	schedules map[primitive.ObjectID]*planSchedule
}

// BuildCalendar assembles the snapshot for the caller's followed plans.
func (s *contentService) BuildCalendar(ctx context.Context, caller domain.CallerContext, follows []domain.FollowRelationship, plans []domain.Plan) (*PlanContentCalendar, error) {
	followedAt := make(map[primitive.ObjectID]time.Time, len(follows))
	for _, f := range follows {
		followedAt[f.PlanID] = f.FollowedAt
	}

	cal := &PlanContentCalendar{schedules: make(map[primitive.ObjectID]*planSchedule, len(plans))}
	for i := range plans {
		p := &plans[i]
		sched := &planSchedule{days: make(map[int]struct{})}

		if p.IsLive() {
			state := domain.DeriveLiveState(p, caller.Today)
			// Paused, finished and unclassified live plans serve nothing.
			sched.servable = state.Status == domain.LiveStatusNotStarted ||
				state.Status == domain.LiveStatusRunning
			if p.LiveStartDate == nil {
				sched.servable = false
			} else {
				sched.anchor = p.LiveStartDate.Truncate(24 * time.Hour)
			}
		} else {
			at, ok := followedAt[p.ID]
			if !ok {
				continue
			}
			sched.anchor = at.Truncate(24 * time.Hour)
			sched.servable = true
		}
		if !sched.servable {
			continue
		}

		days, err := s.mealDayRepo.ListByPlan(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range days {
			if p.DurationDays > 0 && d.DayNumber > p.DurationDays {
				continue
			}
			sched.days[d.DayNumber] = struct{}{}
		}
		cal.schedules[p.ID] = sched
	}
	return cal, nil
}

// HasContentOn reports whether the plan serves content on the given date.
func (c *PlanContentCalendar) HasContentOn(planID primitive.ObjectID, date time.Time) bool {
	sched, ok := c.schedules[planID]
	if !ok {
		return false
	}
	n := contentDayNumber(sched.anchor, date)
	if n < 1 {
		return false
	}
	_, has := sched.days[n]
	return has
}

// ContentDayOn returns the content day number the plan serves on the given
// date, or 0 when it serves none.
func (c *PlanContentCalendar) ContentDayOn(planID primitive.ObjectID, date time.Time) int {
	if !c.HasContentOn(planID, date) {
		return 0
	}
	return contentDayNumber(c.schedules[planID].anchor, date)
}

// NextContentStart returns the first date strictly after the given date on
// which the plan serves content, or nil if it never will.
func (c *PlanContentCalendar) NextContentStart(planID primitive.ObjectID, after time.Time) *time.Time {
	sched, ok := c.schedules[planID]
	if !ok {
		return nil
	}
	var best *time.Time
	for n := range sched.days {
		candidate := sched.anchor.Add(time.Duration(n-1) * 24 * time.Hour)
		if !candidate.After(after) {
			continue
		}
		if best == nil || candidate.Before(*best) {
			d := candidate
			best = &d
		}
	}
	return best
}

func contentDayNumber(anchor, date time.Time) int {
	return int(date.Truncate(24*time.Hour).Sub(anchor).Hours()/24) + 1
}

// callerFollowSet snapshots the caller's active follows. Anonymous callers
// follow nothing.
func callerFollowSet(ctx context.Context, followRepo repository.FollowRepository, caller domain.CallerContext) (followSet engine.FollowSet, err error) {
	if caller.IsAnonymous() {
		return engine.NewFollowSet(nil), nil
	}
	follows, err := followRepo.ListActiveByUser(ctx, caller.GymID, *caller.UserID)
	if err != nil {
		return nil, err
	}
	return followSetOf(follows), nil
}
