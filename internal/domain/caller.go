package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CallerContext carries everything visibility evaluation needs to know about
// the requester. It is assembled once at the HTTP (or CLI) boundary and passed
// down; nothing below that boundary reads a wall clock or request state.
type CallerContext struct {
	GymID  primitive.ObjectID  // Tenant the request is scoped to
	UserID *primitive.ObjectID // Nil for anonymous callers
	Today  time.Time           // Evaluation date, UTC midnight
}

func (c CallerContext) IsAnonymous() bool {
	return c.UserID == nil
}

// Owns reports whether the caller is the creator of the plan.
func (c CallerContext) Owns(p *Plan) bool {
	return p.CreatedBy(c.UserID)
}
