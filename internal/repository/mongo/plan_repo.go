// internal/repository/mongo/plan_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/repository"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.GymID == primitive.NilObjectID || plan.CreatorID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires gymId, creatorId, and title")
	}
	if plan.PlanType == "" {
		return primitive.NilObjectID, errors.New("plan requires a planType")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID, active or not.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update overwrites the mutable fields of a plan.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	filter := bson.M{"_id": plan.ID}
	// GymID, CreatorID and CreatedAt never change after insert.
	updateDoc := bson.M{
		"$set": bson.M{
			"title":               plan.Title,
			"description":         plan.Description,
			"isPublic":            plan.IsPublic,
			"isActive":            plan.IsActive,
			"planType":            plan.PlanType,
			"liveStartDate":       plan.LiveStartDate,
			"liveEndDate":         plan.LiveEndDate,
			"isLiveActive":        plan.IsLiveActive,
			"sourcePlanId":        plan.SourcePlanID,
			"archivedAt":          plan.ArchivedAt,
			"durationDays":        plan.DurationDays,
			"goal":                plan.Goal,
			"difficultyLevel":     plan.DifficultyLevel,
			"budgetLevel":         plan.BudgetLevel,
			"dietaryRestrictions": plan.DietaryRestrictions,
			"coverImageKey":       plan.CoverImageKey,
			"updatedAt":           time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListActiveByGym retrieves every active plan belonging to a gym, newest first.
func (r *mongoPlanRepository) ListActiveByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Plan, error) {
	var plans []domain.Plan
	filter := bson.M{
		"gymId":    gymID,
		"isActive": true,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Return empty slice if no plans found (not an error)
	return plans, nil
}

// ListByIDs retrieves plans by id regardless of state. Missing ids are simply
// absent from the result.
func (r *mongoPlanRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	if len(ids) == 0 {
		return []domain.Plan{}, nil
	}
	var plans []domain.Plan
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListDateExpiredActive finds live plans whose end date passed while the
// operator flag stayed on. These read as unclassified until swept.
func (r *mongoPlanRepository) ListDateExpiredActive(ctx context.Context, asOf time.Time) ([]domain.Plan, error) {
	var plans []domain.Plan
	filter := bson.M{
		"planType":     domain.PlanTypeLive,
		"isActive":     true,
		"isLiveActive": true,
		"liveEndDate":  bson.M{"$lt": asOf},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Main listing pattern: active plans of a gym, newest first
			Keys:    bson.D{{Key: "gymId", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "creatorId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Sweep pattern: live plans past their end date
			Keys:    bson.D{{Key: "planType", Value: 1}, {Key: "isLiveActive", Value: 1}, {Key: "liveEndDate", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
