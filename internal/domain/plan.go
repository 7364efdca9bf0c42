// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType type to distinguish the lifecycle family of a plan
type PlanType string

const (
	PlanTypeTemplate PlanType = "template" // Reusable plan, content anchored per follower
	PlanTypeLive     PlanType = "live"     // Calendar-anchored plan run by the gym
	PlanTypeArchived PlanType = "archived" // Snapshot of a concluded live plan
)

// Plan represents a nutrition plan owned by a gym member or coach.
// Every plan belongs to exactly one gym; queries never cross gyms.
type Plan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID       primitive.ObjectID `bson:"gymId" json:"gymId"`         // Tenant boundary
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"` // Who created the plan
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"` // Private plans are creator-only (plus followers on detail)
	IsActive    bool               `bson:"isActive" json:"isActive"` // Soft delete; inactive plans are invisible to everyone
	PlanType    PlanType           `bson:"planType" json:"planType"`

	// --- Live plan fields ---
	LiveStartDate *time.Time `bson:"liveStartDate,omitempty" json:"liveStartDate,omitempty"`
	LiveEndDate   *time.Time `bson:"liveEndDate,omitempty" json:"liveEndDate,omitempty"`
	IsLiveActive  bool       `bson:"isLiveActive" json:"isLiveActive"` // Operator flag; authoritative over date math

	// --- Archived plan fields ---
	SourcePlanID *primitive.ObjectID `bson:"sourcePlanId,omitempty" json:"sourcePlanId,omitempty"` // Live plan this archive was taken from
	ArchivedAt   *time.Time          `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`

	// --- Descriptive attributes (list filtering) ---
	DurationDays        int      `bson:"durationDays,omitempty" json:"durationDays,omitempty"` // 0 = open ended
	Goal                string   `bson:"goal,omitempty" json:"goal,omitempty"`                 // e.g. "weight_loss", "muscle_gain"
	DifficultyLevel     string   `bson:"difficultyLevel,omitempty" json:"difficultyLevel,omitempty"`
	BudgetLevel         string   `bson:"budgetLevel,omitempty" json:"budgetLevel,omitempty"`
	DietaryRestrictions []string `bson:"dietaryRestrictions,omitempty" json:"dietaryRestrictions,omitempty"`

	CoverImageKey string    `bson:"coverImageKey,omitempty" json:"-"` // S3 object key, exposed via presigned URL only
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (p *Plan) IsLive() bool {
	return p.PlanType == PlanTypeLive
}

func (p *Plan) IsArchived() bool {
	return p.PlanType == PlanTypeArchived
}

// CreatedBy reports whether the given user is the plan's creator.
func (p *Plan) CreatedBy(userID *primitive.ObjectID) bool {
	return userID != nil && *userID == p.CreatorID
}
