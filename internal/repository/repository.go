package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs

	"fitgym/nutrition-app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// PlanRepository defines the interface for interacting with plan data.
// Reads return rows as stored; who may see them is decided above this layer.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	// ListActiveByGym returns every active plan of a gym, newest first.
	ListActiveByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Plan, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error)
	// ListDateExpiredActive returns live plans still flagged active whose end
	// date lies strictly before asOf. Used by the operator sweep.
	ListDateExpiredActive(ctx context.Context, asOf time.Time) ([]domain.Plan, error)
}

// FollowRepository defines the interface for interacting with follow records.
type FollowRepository interface {
	Create(ctx context.Context, follow *domain.FollowRelationship) (primitive.ObjectID, error)
	// GetActiveByPlanAndUser returns the single active follow record for the
	// pair, or ErrNotFound.
	GetActiveByPlanAndUser(ctx context.Context, planID, userID primitive.ObjectID) (*domain.FollowRelationship, error)
	// ListActiveByUser returns the user's current follows within a gym.
	ListActiveByUser(ctx context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error)
	// ListByUser returns the user's full follow history within a gym,
	// inactive records included.
	ListByUser(ctx context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error)
	// Deactivate closes an active follow record and stamps the unfollow time.
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	CountActiveByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error)
	CountByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error)
}

// MealDayRepository defines the interface for interacting with meal day content.
type MealDayRepository interface {
	// Upsert inserts or replaces the content for one (plan, day) slot.
	Upsert(ctx context.Context, day *domain.MealDay) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, days []domain.MealDay) error
	GetByPlanAndDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) (*domain.MealDay, error)
	// ListByPlan returns all content days of a plan ordered by day number.
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.MealDay, error)
	DeleteByPlanAndDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) error
}
