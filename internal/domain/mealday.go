// internal/domain/mealday.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealDay holds the meal content for one day of a plan.
// DayNumber is 1-based and unique per plan; when the plan has a positive
// DurationDays it stays within that bound.
type MealDay struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	GymID     primitive.ObjectID `bson:"gymId" json:"gymId"` // Denormalized for tenant-scoped queries
	DayNumber int                `bson:"dayNumber" json:"dayNumber"`
	Breakfast string             `bson:"breakfast,omitempty" json:"breakfast,omitempty"`
	Lunch     string             `bson:"lunch,omitempty" json:"lunch,omitempty"`
	Dinner    string             `bson:"dinner,omitempty" json:"dinner,omitempty"`
	Snacks    []string           `bson:"snacks,omitempty" json:"snacks,omitempty"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
