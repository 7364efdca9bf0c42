// internal/api/follow_handler.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/service"
)

// FollowHandler serves follow and unfollow actions plus the caller's follow
// history.
type FollowHandler struct {
	followService service.FollowService
}

// NewFollowHandler creates a new FollowHandler.
func NewFollowHandler(followService service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// --- Response Structs ---

type FollowResponse struct {
	ID           string     `json:"id"`
	PlanID       string     `json:"planId"`
	UserID       string     `json:"userId"`
	IsActive     bool       `json:"isActive"`
	FollowedAt   time.Time  `json:"followedAt"`
	UnfollowedAt *time.Time `json:"unfollowedAt,omitempty"`
}

// --- Handler Methods ---

// FollowPlan godoc
// @Summary Follow a plan
// @Description Opens a new follow record. Gated like the plan detail read.
// @Tags Follows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 201 {object} FollowResponse "Follow record created"
// @Failure 403 {object} gin.H "Forbidden (plan not accessible)"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (already following)"
// @Router /plans/{id}/follow [post]
func (h *FollowHandler) FollowPlan(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}

	follow, err := h.followService.FollowPlan(c.Request.Context(), caller, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrPlanAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrAlreadyFollowing) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to follow plan")
		}
		return
	}
	c.JSON(http.StatusCreated, MapFollowToResponse(follow))
}

// UnfollowPlan godoc
// @Summary Unfollow a plan
// @Description Closes the caller's active follow record. Works regardless of the plan's current state.
// @Tags Follows
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204 "Follow record closed"
// @Failure 404 {object} gin.H "Not following this plan"
// @Router /plans/{id}/follow [delete]
func (h *FollowHandler) UnfollowPlan(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}

	if err := h.followService.UnfollowPlan(c.Request.Context(), caller, planID); err != nil {
		if errors.Is(err, service.ErrNotFollowing) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to unfollow plan")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFollowHistory godoc
// @Summary Follow history
// @Description Returns the caller's full follow history, closed records included, newest first.
// @Tags Follows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} FollowResponse "Follow records"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /me/follows [get]
func (h *FollowHandler) GetFollowHistory(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}

	history, err := h.followService.GetFollowHistory(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load follow history")
		return
	}

	resp := make([]FollowResponse, 0, len(history))
	for i := range history {
		resp = append(resp, MapFollowToResponse(&history[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// MapFollowToResponse converts a domain FollowRelationship to its wire shape.
func MapFollowToResponse(follow *domain.FollowRelationship) FollowResponse {
	if follow == nil {
		return FollowResponse{}
	}
	return FollowResponse{
		ID:           follow.ID.Hex(),
		PlanID:       follow.PlanID.Hex(),
		UserID:       follow.UserID.Hex(),
		IsActive:     follow.IsActive,
		FollowedAt:   follow.FollowedAt,
		UnfollowedAt: follow.UnfollowedAt,
	}
}
