package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowRelationship records one stretch of a user following a plan.
// Unfollowing flips IsActive and stamps UnfollowedAt; following again later
// inserts a fresh record. Nothing is ever physically deleted, so the full
// follow history of a plan stays auditable.
type FollowRelationship struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID        primitive.ObjectID `bson:"gymId" json:"gymId"` // Denormalized from the plan for tenant-scoped queries
	PlanID       primitive.ObjectID `bson:"planId" json:"planId"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	FollowedAt   time.Time          `bson:"followedAt" json:"followedAt"` // Content anchor for template/archived plans
	UnfollowedAt *time.Time         `bson:"unfollowedAt,omitempty" json:"unfollowedAt,omitempty"`
}
