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

const mealDayCollectionName = "meal_days"

// mongoMealDayRepository implements repository.MealDayRepository
type mongoMealDayRepository struct {
	collection *mongo.Collection
}

// NewMongoMealDayRepository creates a new MealDay repository.
func NewMongoMealDayRepository(db *mongo.Database) repository.MealDayRepository {
	return &mongoMealDayRepository{
		collection: db.Collection(mealDayCollectionName),
	}
}

// Upsert inserts or replaces the content for one (plan, day) slot.
func (r *mongoMealDayRepository) Upsert(ctx context.Context, day *domain.MealDay) (primitive.ObjectID, error) {
	if day.PlanID == primitive.NilObjectID || day.GymID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("meal day requires planId and gymId")
	}
	if day.DayNumber < 1 {
		return primitive.NilObjectID, errors.New("meal day number must be 1 or greater")
	}

	now := time.Now().UTC()
	filter := bson.M{"planId": day.PlanID, "dayNumber": day.DayNumber}
	update := bson.M{
		"$set": bson.M{
			"gymId":     day.GymID,
			"breakfast": day.Breakfast,
			"lunch":     day.Lunch,
			"dinner":    day.Dinner,
			"snacks":    day.Snacks,
			"notes":     day.Notes,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"planId":    day.PlanID,
			"dayNumber": day.DayNumber,
			"createdAt": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return primitive.NilObjectID, err
	}
	if result.UpsertedID != nil {
		if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
			return id, nil
		}
	}
	// Replaced an existing slot: fetch its id.
	existing, err := r.GetByPlanAndDay(ctx, day.PlanID, day.DayNumber)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return existing.ID, nil
}

// CreateMany inserts a batch of meal days, used when archiving copies a plan's content.
func (r *mongoMealDayRepository) CreateMany(ctx context.Context, days []domain.MealDay) error {
	if len(days) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(days))
	for i := range days {
		days[i].ID = primitive.NewObjectID()
		days[i].CreatedAt = now
		days[i].UpdatedAt = now
		docs = append(docs, days[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByPlanAndDay retrieves the content for one day of a plan.
func (r *mongoMealDayRepository) GetByPlanAndDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) (*domain.MealDay, error) {
	var day domain.MealDay
	filter := bson.M{"planId": planID, "dayNumber": dayNumber}
	err := r.collection.FindOne(ctx, filter).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &day, nil
}

// ListByPlan retrieves all content days of a plan ordered by day number.
func (r *mongoMealDayRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.MealDay, error) {
	var days []domain.MealDay
	filter := bson.M{"planId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// DeleteByPlanAndDay removes the content for one day of a plan.
func (r *mongoMealDayRepository) DeleteByPlanAndDay(ctx context.Context, planID primitive.ObjectID, dayNumber int) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"planId": planID, "dayNumber": dayNumber})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMealDayIndexes creates necessary indexes. Call during startup.
func EnsureMealDayIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One content document per (plan, day)
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "dayNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
