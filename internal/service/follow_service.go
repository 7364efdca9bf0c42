package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrAlreadyFollowing = errors.New("already following this plan")
	ErrNotFollowing     = errors.New("not following this plan")
)

// --- Service Interface ---
type FollowService interface {
	FollowPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.FollowRelationship, error)
	UnfollowPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error
	GetFollowHistory(ctx context.Context, caller domain.CallerContext) ([]domain.FollowRelationship, error)
}

// --- Service Implementation ---

// followService implements the FollowService interface.
type followService struct {
	followRepo repository.FollowRepository
	planRepo   repository.PlanRepository
}

// NewFollowService creates a new instance of followService.
func NewFollowService(followRepo repository.FollowRepository, planRepo repository.PlanRepository) FollowService {
	return &followService{
		followRepo: followRepo,
		planRepo:   planRepo,
	}
}

// FollowPlan opens a new follow record. Following is gated the same way as a
// detail read: whatever a user can fetch by id, they can follow, and nothing
// else.
func (s *followService) FollowPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.FollowRelationship, error) {
	userID, err := requireUser(caller)
	if err != nil {
		return nil, err
	}

	// 1. Fetch the plan
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// 2. Snapshot the caller's current follows
	current, err := s.followRepo.ListActiveByUser(ctx, caller.GymID, userID)
	if err != nil {
		return nil, err
	}
	follows := followSetOf(current)
	if follows.Contains(planID) {
		return nil, ErrAlreadyFollowing
	}

	// 3. Same gate as fetching the plan by id
	if err := detailAccessError(plan, caller, follows); err != nil {
		return nil, err
	}

	// 4. Insert a fresh record; earlier closed records stay untouched
	follow := &domain.FollowRelationship{
		GymID:  plan.GymID,
		PlanID: plan.ID,
		UserID: userID,
	}
	followID, err := s.followRepo.Create(ctx, follow)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race against another follow request for the same pair.
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}
	follow.ID = followID
	return follow, nil
}

// UnfollowPlan closes the caller's active follow record for the plan. No
// visibility check here: a follow stays the user's to close even after the
// plan went private or inactive.
func (s *followService) UnfollowPlan(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) error {
	userID, err := requireUser(caller)
	if err != nil {
		return err
	}

	follow, err := s.followRepo.GetActiveByPlanAndUser(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFollowing
		}
		return err
	}

	if err := s.followRepo.Deactivate(ctx, follow.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFollowing
		}
		return err
	}
	return nil
}

// GetFollowHistory returns the caller's full follow history, closed records
// included.
func (s *followService) GetFollowHistory(ctx context.Context, caller domain.CallerContext) ([]domain.FollowRelationship, error) {
	userID, err := requireUser(caller)
	if err != nil {
		return nil, err
	}
	return s.followRepo.ListByUser(ctx, caller.GymID, userID)
}

// followSetOf builds the engine's follow snapshot from active follow records.
func followSetOf(follows []domain.FollowRelationship) engine.FollowSet {
	ids := make([]primitive.ObjectID, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.PlanID)
	}
	return engine.NewFollowSet(ids)
}
