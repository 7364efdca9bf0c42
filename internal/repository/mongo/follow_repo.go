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

const followCollectionName = "follows"

// mongoFollowRepository implements repository.FollowRepository
type mongoFollowRepository struct {
	collection *mongo.Collection
}

// NewMongoFollowRepository creates a new Follow repository.
func NewMongoFollowRepository(db *mongo.Database) repository.FollowRepository {
	return &mongoFollowRepository{
		collection: db.Collection(followCollectionName),
	}
}

// Create inserts a new follow record. The partial unique index on active
// records turns a concurrent double-follow into ErrDuplicate.
func (r *mongoFollowRepository) Create(ctx context.Context, follow *domain.FollowRelationship) (primitive.ObjectID, error) {
	if follow.GymID == primitive.NilObjectID || follow.PlanID == primitive.NilObjectID || follow.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("follow requires gymId, planId, and userId")
	}
	follow.ID = primitive.NewObjectID()
	follow.IsActive = true
	if follow.FollowedAt.IsZero() {
		follow.FollowedAt = time.Now().UTC()
	}
	follow.UnfollowedAt = nil

	result, err := r.collection.InsertOne(ctx, follow)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted follow ID")
	}
	return insertedID, nil
}

// GetActiveByPlanAndUser retrieves the single active follow record for the pair.
func (r *mongoFollowRepository) GetActiveByPlanAndUser(ctx context.Context, planID, userID primitive.ObjectID) (*domain.FollowRelationship, error) {
	var follow domain.FollowRelationship
	filter := bson.M{
		"planId":   planID,
		"userId":   userID,
		"isActive": true,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&follow)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &follow, nil
}

// ListActiveByUser retrieves the user's current follows within a gym.
func (r *mongoFollowRepository) ListActiveByUser(ctx context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error) {
	filter := bson.M{
		"gymId":    gymID,
		"userId":   userID,
		"isActive": true,
	}
	return r.list(ctx, filter)
}

// ListByUser retrieves the user's full follow history within a gym.
func (r *mongoFollowRepository) ListByUser(ctx context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error) {
	filter := bson.M{
		"gymId":  gymID,
		"userId": userID,
	}
	return r.list(ctx, filter)
}

func (r *mongoFollowRepository) list(ctx context.Context, filter bson.M) ([]domain.FollowRelationship, error) {
	var follows []domain.FollowRelationship
	findOptions := options.Find().SetSort(bson.D{{Key: "followedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return follows, nil
}

// Deactivate closes an active follow record and stamps the unfollow time.
// The record itself stays: history is never deleted.
func (r *mongoFollowRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "isActive": true}
	update := bson.M{
		"$set": bson.M{
			"isActive":     false,
			"unfollowedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountActiveByPlan counts the plan's current followers.
func (r *mongoFollowRepository) CountActiveByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"planId": planID, "isActive": true})
}

// CountByPlan counts every follow record the plan ever had.
func (r *mongoFollowRepository) CountByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"planId": planID})
}

// EnsureFollowIndexes creates necessary indexes. Call during startup.
func EnsureFollowIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one ACTIVE follow per (plan, user). Partial so closed
			// records from earlier follow stretches don't collide.
			Keys: bson.D{{Key: "planId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			// Listing pattern: a user's follows within a gym
			Keys:    bson.D{{Key: "gymId", Value: 1}, {Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
		{
			// Analytics pattern: follower counts per plan
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
