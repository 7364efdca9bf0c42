// internal/service/catalog_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// DashboardAvailableLimit caps the dashboard's discovery rail.
	DashboardAvailableLimit = 10
)

// Dashboard is the member home surface: everything followed, categorized,
// plus a short rail of public plans to discover.
type Dashboard struct {
	Followed  engine.CategorizedPlans
	Available []domain.Plan
}

// TodayPlan is the today surface: the single plan resolved for the caller,
// with its content for the day when there is any, or the date content starts.
type TodayPlan struct {
	Plan       *domain.Plan
	ContentDay int
	Meal       *domain.MealDay
	StartsOn   *time.Time
}

// --- Service Interface ---

// CatalogService composes the read surfaces. It is the only layer that knows
// which endpoint wants which access mode and shaping; the rules themselves
// live in the engine package and are shared by every surface.
type CatalogService interface {
	ListPlans(ctx context.Context, caller domain.CallerContext, filter engine.ListFilter, page, limit int) ([]domain.Plan, int, error)
	GetPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error)
	GetDashboard(ctx context.Context, caller domain.CallerContext) (*Dashboard, error)
	GetTodayPlan(ctx context.Context, caller domain.CallerContext) (*TodayPlan, error)
	GetCategorizedPlans(ctx context.Context, caller domain.CallerContext, statusFilter string) (*engine.CategorizedPlans, error)
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	planRepo   repository.PlanRepository
	followRepo repository.FollowRepository
	content    ContentService
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	planRepo repository.PlanRepository,
	followRepo repository.FollowRepository,
	content ContentService,
) CatalogService {
	return &catalogService{
		planRepo:   planRepo,
		followRepo: followRepo,
		content:    content,
	}
}

// detailAccessError maps a failed detail read to its boundary signal. A plan
// that is absent, inactive, or from another gym reads as not found; a plan
// the caller can locate but not open reads as access denied. The split only
// exists in detail mode, where the caller already holds the id.
func detailAccessError(p *domain.Plan, caller domain.CallerContext, follows engine.FollowSet) error {
	if engine.Visible(p, caller, engine.ModeDetail, follows) {
		return nil
	}
	if p.GymID != caller.GymID || !p.IsActive {
		return ErrPlanNotFound
	}
	return ErrPlanAccessDenied
}

// listVisible fetches the gym's active plans and keeps those the caller may
// see on browsing surfaces.
func (s *catalogService) listVisible(ctx context.Context, caller domain.CallerContext) ([]domain.Plan, error) {
	candidates, err := s.planRepo.ListActiveByGym(ctx, caller.GymID)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Plan, 0, len(candidates))
	for i := range candidates {
		if engine.Visible(&candidates[i], caller, engine.ModeList, nil) {
			visible = append(visible, candidates[i])
		}
	}
	return visible, nil
}

// ListPlans returns one page of the filtered listing plus the total match
// count. Filters narrow what the caller already sees; they never widen it.
func (s *catalogService) ListPlans(ctx context.Context, caller domain.CallerContext, filter engine.ListFilter, page, limit int) ([]domain.Plan, int, error) {
	visible, err := s.listVisible(ctx, caller)
	if err != nil {
		return nil, 0, err
	}

	filtered := engine.ApplyFilter(visible, filter, caller.Today)
	engine.SortPlans(filtered)
	total := len(filtered)

	page, limit = NormalizePaging(page, limit)
	return pageSlice(filtered, page, limit), total, nil
}

// GetPlan returns a single plan by id, gated in detail mode.
func (s *catalogService) GetPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
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
	return plan, nil
}

// GetDashboard assembles the home surface. Followed plans are judged in list
// mode like any other browsing read, so a followed private plan stays a
// detail-only follow and does not surface here.
func (s *catalogService) GetDashboard(ctx context.Context, caller domain.CallerContext) (*Dashboard, error) {
	visible, err := s.listVisible(ctx, caller)
	if err != nil {
		return nil, err
	}

	follows, err := callerFollowSet(ctx, s.followRepo, caller)
	if err != nil {
		return nil, err
	}

	var followed []domain.Plan
	var available []domain.Plan
	for i := range visible {
		if follows.Contains(visible[i].ID) {
			followed = append(followed, visible[i])
			continue
		}
		if visible[i].IsPublic {
			available = append(available, visible[i])
		}
	}

	engine.SortPlans(available)
	if len(available) > DashboardAvailableLimit {
		available = available[:DashboardAvailableLimit]
	}

	return &Dashboard{
		Followed:  engine.Categorize(followed, engine.DefaultCategoryLimit),
		Available: available,
	}, nil
}

// GetTodayPlan resolves the caller's plan of the day and its content.
func (s *catalogService) GetTodayPlan(ctx context.Context, caller domain.CallerContext) (*TodayPlan, error) {
	if caller.IsAnonymous() {
		return &TodayPlan{}, nil
	}

	follows, err := s.followRepo.ListActiveByUser(ctx, caller.GymID, *caller.UserID)
	if err != nil {
		return nil, err
	}
	if len(follows) == 0 {
		return &TodayPlan{}, nil
	}

	planIDs := make([]primitive.ObjectID, 0, len(follows))
	for _, f := range follows {
		planIDs = append(planIDs, f.PlanID)
	}
	plans, err := s.planRepo.ListByIDs(ctx, planIDs)
	if err != nil {
		return nil, err
	}

	followSet := followSetOf(follows)
	eligible := make([]domain.Plan, 0, len(plans))
	for i := range plans {
		if engine.Visible(&plans[i], caller, engine.ModeToday, followSet) {
			eligible = append(eligible, plans[i])
		}
	}
	if len(eligible) == 0 {
		return &TodayPlan{}, nil
	}

	cal, err := s.content.BuildCalendar(ctx, caller, follows, eligible)
	if err != nil {
		return nil, err
	}
	resolved := engine.ResolveToday(eligible, caller.Today, cal)
	if resolved == nil {
		return &TodayPlan{}, nil
	}

	result := &TodayPlan{Plan: resolved}
	if day := cal.ContentDayOn(resolved.ID, caller.Today); day > 0 {
		result.ContentDay = day
		meal, err := s.content.GetMealDay(ctx, resolved.ID, day)
		if err != nil {
			return nil, err
		}
		result.Meal = meal
	} else {
		result.StartsOn = cal.NextContentStart(resolved.ID, caller.Today)
	}
	return result, nil
}

// GetCategorizedPlans returns the full categorized view. A status filter
// narrows the live bucket to plans in that derived state; template and
// archived buckets are unaffected.
func (s *catalogService) GetCategorizedPlans(ctx context.Context, caller domain.CallerContext, statusFilter string) (*engine.CategorizedPlans, error) {
	visible, err := s.listVisible(ctx, caller)
	if err != nil {
		return nil, err
	}

	if statusFilter == "" {
		cat := engine.Categorize(visible, engine.DefaultCategoryLimit)
		return &cat, nil
	}

	status, ok := domain.ParseLiveStatus(statusFilter)
	if !ok {
		return nil, ErrInvalidStatusFilter
	}
	cat := engine.Categorize(visible, 0)
	cat.Live = engine.FilterByLiveStatus(cat.Live, status, caller.Today)
	cat = cat.Capped(engine.DefaultCategoryLimit)
	return &cat, nil
}

// --- Paging helpers ---

// NormalizePaging clamps paging parameters to their defaults and bounds. The
// API layer uses it too, so response metadata reflects the values actually
// applied.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func pageSlice(plans []domain.Plan, page, limit int) []domain.Plan {
	start := (page - 1) * limit
	if start >= len(plans) {
		return []domain.Plan{}
	}
	end := start + limit
	if end > len(plans) {
		end = len(plans)
	}
	return plans[start:end]
}
