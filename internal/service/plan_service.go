package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/repository"
	"fitgym/nutrition-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanAccessDenied  = errors.New("access denied to this plan")
	ErrNotPlanCreator    = errors.New("only the plan creator may modify it")
	ErrPlanValidation    = errors.New("invalid plan input")
	ErrInvalidPlanType   = errors.New("plan type must be template or live")
	ErrPlanNotLive       = errors.New("plan is not a live plan")
	ErrLiveStartRequired = errors.New("live plans require a start date")
	ErrPlanNotArchivable = errors.New("only finished live plans can be archived")
	ErrArchivedImmutable = errors.New("archived plans cannot be modified")
	ErrResumePastEndDate = errors.New("cannot resume a live plan past its end date")
	ErrMealDayOutOfRange = errors.New("day number exceeds the plan duration")
	ErrCoverNotImage     = errors.New("cover upload requires an image content type")
	ErrCoverKeyMismatch  = errors.New("object key does not belong to this plan")
	ErrUploadURLError    = errors.New("failed to generate upload URL")
	ErrDownloadURLError  = errors.New("failed to generate download URL")
)

// requireUser unwraps the caller's user id for operations that need an
// authenticated identity.
func requireUser(caller domain.CallerContext) (primitive.ObjectID, error) {
	if caller.UserID == nil || *caller.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, ErrPlanAccessDenied
	}
	return *caller.UserID, nil
}

// --- Inputs ---

type CreatePlanInput struct {
	Title               string
	Description         string
	IsPublic            bool
	PlanType            domain.PlanType
	LiveStartDate       *time.Time
	LiveEndDate         *time.Time
	DurationDays        int
	Goal                string
	DifficultyLevel     string
	BudgetLevel         string
	DietaryRestrictions []string
}

type UpdatePlanInput struct {
	Title               string
	Description         string
	IsPublic            bool
	DurationDays        int
	Goal                string
	DifficultyLevel     string
	BudgetLevel         string
	DietaryRestrictions []string
}

// UploadURLResponse carries a presigned upload URL and the object key the
// client reports back on confirm.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// PlanAnalytics is the creator-only view of a plan's follow numbers.
type PlanAnalytics struct {
	PlanID          primitive.ObjectID `json:"planId"`
	ActiveFollowers int64              `json:"activeFollowers"`
	TotalFollows    int64              `json:"totalFollows"`
	TotalUnfollows  int64              `json:"totalUnfollows"`
	LiveState       *domain.LiveState  `json:"liveState,omitempty"`
}

// --- Service Interface ---
type PlanService interface {
	// Creator operations
	CreatePlan(ctx context.Context, caller domain.CallerContext, input CreatePlanInput) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, input UpdatePlanInput) (*domain.Plan, error)
	DeactivatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error
	ActivatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error

	// Live lifecycle (operator)
	PauseLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error)
	ResumeLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error)
	FinishLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error)
	ArchiveLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error)
	SweepExpiredLivePlans(ctx context.Context, asOf time.Time) ([]domain.Plan, error)

	// Cover image
	RequestCoverUploadURL(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmCoverUpload(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, objectKey string) (*domain.Plan, error)
	CoverDownloadURL(ctx context.Context, plan *domain.Plan) (string, error)

	// Analytics
	GetPlanAnalytics(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*PlanAnalytics, error)
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	planRepo    repository.PlanRepository
	followRepo  repository.FollowRepository
	mealDayRepo repository.MealDayRepository
	fileStorage storage.FileStorage
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	followRepo repository.FollowRepository,
	mealDayRepo repository.MealDayRepository,
	fileStorage storage.FileStorage,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		followRepo:  followRepo,
		mealDayRepo: mealDayRepo,
		fileStorage: fileStorage,
	}
}

// fetchPlanInGym fetches a plan and hides its existence from other gyms.
func fetchPlanInGym(ctx context.Context, planRepo repository.PlanRepository, gymID, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	// A plan from another gym reads as absent, never as forbidden.
	if plan.GymID != gymID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// fetchOwnedPlan fetches a plan and verifies the caller created it. Ownership
// checks deliberately ignore the active flag: a creator may always reach
// their own deactivated plan to reactivate or inspect it.
func fetchOwnedPlan(ctx context.Context, planRepo repository.PlanRepository, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	userID, err := requireUser(caller)
	if err != nil {
		return nil, err
	}
	plan, err := fetchPlanInGym(ctx, planRepo, caller.GymID, planID)
	if err != nil {
		return nil, err
	}
	if plan.CreatorID != userID {
		return nil, ErrNotPlanCreator
	}
	return plan, nil
}

// === Creator operations ===

// CreatePlan creates a template or live plan owned by the caller.
func (s *planService) CreatePlan(ctx context.Context, caller domain.CallerContext, input CreatePlanInput) (*domain.Plan, error) {
	userID, err := requireUser(caller)
	if err != nil {
		return nil, err
	}

	// 1. Validate input
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: plan title is required", ErrPlanValidation)
	}
	switch input.PlanType {
	case domain.PlanTypeTemplate:
		if input.LiveStartDate != nil || input.LiveEndDate != nil {
			return nil, fmt.Errorf("%w: template plans carry no live dates", ErrPlanValidation)
		}
	case domain.PlanTypeLive:
		if input.LiveStartDate == nil {
			return nil, ErrLiveStartRequired
		}
		if input.LiveEndDate != nil && input.LiveEndDate.Before(*input.LiveStartDate) {
			return nil, fmt.Errorf("%w: live end date cannot precede the start date", ErrPlanValidation)
		}
	default:
		// Archived plans only come out of the archive operation.
		return nil, ErrInvalidPlanType
	}
	if input.DurationDays < 0 {
		return nil, fmt.Errorf("%w: plan duration cannot be negative", ErrPlanValidation)
	}

	// 2. Build the plan
	plan := &domain.Plan{
		GymID:               caller.GymID,
		CreatorID:           userID,
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		IsPublic:            input.IsPublic,
		IsActive:            true,
		PlanType:            input.PlanType,
		LiveStartDate:       input.LiveStartDate,
		LiveEndDate:         input.LiveEndDate,
		IsLiveActive:        input.PlanType == domain.PlanTypeLive, // Live plans start under the operator flag
		DurationDays:        input.DurationDays,
		Goal:                input.Goal,
		DifficultyLevel:     input.DifficultyLevel,
		BudgetLevel:         input.BudgetLevel,
		DietaryRestrictions: input.DietaryRestrictions,
	}

	// 3. Save
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// UpdatePlan changes the descriptive fields of a plan the caller created.
// Live schedule fields are not touched here; they move through the lifecycle
// operations only.
func (s *planService) UpdatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, input UpdatePlanInput) (*domain.Plan, error) {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsArchived() {
		return nil, ErrArchivedImmutable
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: plan title is required", ErrPlanValidation)
	}
	if input.DurationDays < 0 {
		return nil, fmt.Errorf("%w: plan duration cannot be negative", ErrPlanValidation)
	}

	plan.Title = strings.TrimSpace(input.Title)
	plan.Description = input.Description
	plan.IsPublic = input.IsPublic
	plan.DurationDays = input.DurationDays
	plan.Goal = input.Goal
	plan.DifficultyLevel = input.DifficultyLevel
	plan.BudgetLevel = input.BudgetLevel
	plan.DietaryRestrictions = input.DietaryRestrictions

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeactivatePlan soft-deletes a plan. It disappears from every surface for
// everyone, the caller included, until reactivated.
func (s *planService) DeactivatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return err
	}
	if !plan.IsActive {
		return nil // Already inactive
	}
	plan.IsActive = false
	return s.planRepo.Update(ctx, plan)
}

// ActivatePlan brings a soft-deleted plan back.
func (s *planService) ActivatePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return err
	}
	if plan.IsActive {
		return nil
	}
	plan.IsActive = true
	return s.planRepo.Update(ctx, plan)
}

// === Live lifecycle (operator) ===

// getLivePlan fetches a live plan for a lifecycle operation. Lifecycle
// operations are staff actions: they are gated by role at the boundary, not
// by creator ownership.
func (s *planService) getLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := fetchPlanInGym(ctx, s.planRepo, caller.GymID, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsLive() {
		return nil, ErrPlanNotLive
	}
	return plan, nil
}

// PauseLivePlan turns the operator flag off without touching the schedule.
// Until resumed, the plan derives finished when it has an end date and
// unclassified when it does not; either way it stops serving content.
func (s *planService) PauseLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.getLivePlan(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	plan.IsLiveActive = false
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ResumeLivePlan turns the operator flag back on.
func (s *planService) ResumeLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.getLivePlan(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	// Resuming past the end date would re-create the contradictory
	// date-expired-but-active state.
	if plan.LiveEndDate != nil && plan.LiveEndDate.Before(caller.Today) {
		return nil, ErrResumePastEndDate
	}
	plan.IsLiveActive = true
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// FinishLivePlan ends a live plan: flag off, end date recorded. A plan
// finished early gets the caller's evaluation date as its end date.
func (s *planService) FinishLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.getLivePlan(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	plan.IsLiveActive = false
	if plan.LiveEndDate == nil {
		end := caller.Today
		plan.LiveEndDate = &end
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ArchiveLivePlan snapshots a finished live plan into a new archived plan,
// copies its meal content, and deactivates the source. The archive carries
// the historical schedule for display but behaves like a template from then
// on.
func (s *planService) ArchiveLivePlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	// 1. The source must be a finished live plan
	plan, err := s.getLivePlan(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	state := domain.DeriveLiveState(plan, caller.Today)
	if state.Status != domain.LiveStatusFinished {
		return nil, ErrPlanNotArchivable
	}

	// 2. Build the archived copy
	now := time.Now().UTC()
	duration := plan.DurationDays
	if duration == 0 && plan.LiveStartDate != nil && plan.LiveEndDate != nil {
		duration = int(plan.LiveEndDate.Sub(*plan.LiveStartDate).Hours()/24) + 1
	}
	archived := &domain.Plan{
		GymID:               plan.GymID,
		CreatorID:           plan.CreatorID,
		Title:               plan.Title,
		Description:         plan.Description,
		IsPublic:            plan.IsPublic,
		IsActive:            true,
		PlanType:            domain.PlanTypeArchived,
		LiveStartDate:       plan.LiveStartDate, // Historical, kept for display
		LiveEndDate:         plan.LiveEndDate,
		IsLiveActive:        false,
		SourcePlanID:        &plan.ID,
		ArchivedAt:          &now,
		DurationDays:        duration,
		Goal:                plan.Goal,
		DifficultyLevel:     plan.DifficultyLevel,
		BudgetLevel:         plan.BudgetLevel,
		DietaryRestrictions: plan.DietaryRestrictions,
		CoverImageKey:       plan.CoverImageKey,
	}
	archivedID, err := s.planRepo.Create(ctx, archived)
	if err != nil {
		return nil, err
	}
	archived.ID = archivedID

	// 3. Copy the meal content across
	days, err := s.mealDayRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	if len(days) > 0 {
		copies := make([]domain.MealDay, 0, len(days))
		for _, d := range days {
			copies = append(copies, domain.MealDay{
				PlanID:    archivedID,
				GymID:     d.GymID,
				DayNumber: d.DayNumber,
				Breakfast: d.Breakfast,
				Lunch:     d.Lunch,
				Dinner:    d.Dinner,
				Snacks:    d.Snacks,
				Notes:     d.Notes,
			})
		}
		if err := s.mealDayRepo.CreateMany(ctx, copies); err != nil {
			return nil, err
		}
	}

	// 4. Retire the source so the archive is the one that shows up
	plan.IsActive = false
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return archived, nil
}

// SweepExpiredLivePlans finishes live plans whose end date passed while the
// operator flag stayed on. Reads never mutate, so these plans sit in the
// unclassified state until an operator (or this sweep) settles them.
func (s *planService) SweepExpiredLivePlans(ctx context.Context, asOf time.Time) ([]domain.Plan, error) {
	expired, err := s.planRepo.ListDateExpiredActive(ctx, asOf)
	if err != nil {
		return nil, err
	}
	swept := make([]domain.Plan, 0, len(expired))
	for i := range expired {
		expired[i].IsLiveActive = false
		if err := s.planRepo.Update(ctx, &expired[i]); err != nil {
			return swept, err
		}
		swept = append(swept, expired[i])
	}
	return swept, nil
}

// === Cover image ===

// RequestCoverUploadURL generates a presigned PUT URL for a plan cover image.
func (s *planService) RequestCoverUploadURL(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return nil, err
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrCoverNotImage
	}

	fileExtension := ""
	parts := strings.Split(contentType, "/")
	if len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("covers", plan.ID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmCoverUpload records the uploaded object as the plan's cover.
func (s *planService) ConfirmCoverUpload(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID, objectKey string) (*domain.Plan, error) {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return nil, err
	}
	// The key must have come from RequestCoverUploadURL for this plan.
	if !strings.HasPrefix(objectKey, path.Join("covers", plan.ID.Hex())+"/") {
		return nil, ErrCoverKeyMismatch
	}

	previous := plan.CoverImageKey
	plan.CoverImageKey = objectKey
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	// Replaced covers are garbage; best effort cleanup.
	if previous != "" && previous != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, previous)
	}
	return plan, nil
}

// CoverDownloadURL returns a presigned GET URL for the plan's cover, or ""
// when the plan has none.
func (s *planService) CoverDownloadURL(ctx context.Context, plan *domain.Plan) (string, error) {
	if plan.CoverImageKey == "" {
		return "", nil
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, plan.CoverImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return url, nil
}

// === Analytics ===

// GetPlanAnalytics returns follow numbers for a plan the caller created.
// Ownership is the whole gate: the numbers stay available on private and
// even deactivated plans, because the creator is inspecting their own data,
// not reading a shared surface.
func (s *planService) GetPlanAnalytics(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*PlanAnalytics, error) {
	plan, err := fetchOwnedPlan(ctx, s.planRepo, caller, planID)
	if err != nil {
		return nil, err
	}

	active, err := s.followRepo.CountActiveByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	total, err := s.followRepo.CountByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	analytics := &PlanAnalytics{
		PlanID:          plan.ID,
		ActiveFollowers: active,
		TotalFollows:    total,
		TotalUnfollows:  total - active,
	}
	if plan.IsLive() {
		state := domain.DeriveLiveState(plan, caller.Today)
		analytics.LiveState = &state
	}
	return analytics, nil
}
