// internal/api/plan_handler.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/service"
)

// PlanHandler serves creator and operator writes: plan CRUD, the live
// lifecycle, meal content and cover images.
type PlanHandler struct {
	planService    service.PlanService
	contentService service.ContentService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, contentService service.ContentService) *PlanHandler {
	return &PlanHandler{
		planService:    planService,
		contentService: contentService,
	}
}

// --- Request/Response Structs ---

type CreatePlanRequest struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	IsPublic            bool     `json:"isPublic"`
	PlanType            string   `json:"planType" binding:"required,oneof=template live"`
	LiveStartDate       string   `json:"liveStartDate"` // YYYY-MM-DD
	LiveEndDate         string   `json:"liveEndDate"`   // YYYY-MM-DD
	DurationDays        int      `json:"durationDays" binding:"gte=0"`
	Goal                string   `json:"goal"`
	DifficultyLevel     string   `json:"difficultyLevel"`
	BudgetLevel         string   `json:"budgetLevel"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

type UpdatePlanRequest struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	IsPublic            bool     `json:"isPublic"`
	DurationDays        int      `json:"durationDays" binding:"gte=0"`
	Goal                string   `json:"goal"`
	DifficultyLevel     string   `json:"difficultyLevel"`
	BudgetLevel         string   `json:"budgetLevel"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type MealDayRequest struct {
	Breakfast string   `json:"breakfast"`
	Lunch     string   `json:"lunch"`
	Dinner    string   `json:"dinner"`
	Snacks    []string `json:"snacks"`
	Notes     string   `json:"notes"`
}

type MealDayResponse struct {
	ID        string   `json:"id"`
	PlanID    string   `json:"planId"`
	DayNumber int      `json:"dayNumber"`
	Breakfast string   `json:"breakfast,omitempty"`
	Lunch     string   `json:"lunch,omitempty"`
	Dinner    string   `json:"dinner,omitempty"`
	Snacks    []string `json:"snacks,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type AnalyticsResponse struct {
	PlanID          string             `json:"planId"`
	ActiveFollowers int64              `json:"activeFollowers"`
	TotalFollows    int64              `json:"totalFollows"`
	TotalUnfollows  int64              `json:"totalUnfollows"`
	LiveState       *LiveStateResponse `json:"liveState,omitempty"`
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a plan
// @Description Creates a template or live plan. Live plans are coach-only and need a start date.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} PlanResponse "Plan created"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden (member creating a live plan)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	planType := domain.PlanType(req.PlanType)
	if planType == domain.PlanTypeLive {
		role, err := getUserRoleFromContext(c)
		if err != nil || role != domain.RoleCoach {
			abortWithError(c, http.StatusForbidden, "Only coaches can run live plans")
			return
		}
	}

	startDate, ok := parseDateField(c, "liveStartDate", req.LiveStartDate)
	if !ok {
		return
	}
	endDate, ok := parseDateField(c, "liveEndDate", req.LiveEndDate)
	if !ok {
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), caller, service.CreatePlanInput{
		Title:               req.Title,
		Description:         req.Description,
		IsPublic:            req.IsPublic,
		PlanType:            planType,
		LiveStartDate:       startDate,
		LiveEndDate:         endDate,
		DurationDays:        req.DurationDays,
		Goal:                req.Goal,
		DifficultyLevel:     req.DifficultyLevel,
		BudgetLevel:         req.BudgetLevel,
		DietaryRestrictions: req.DietaryRestrictions,
	})
	if err != nil {
		if errors.Is(err, service.ErrLiveStartRequired) || errors.Is(err, service.ErrInvalidPlanType) || errors.Is(err, service.ErrPlanValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan")
		}
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan, caller.Today))
}

// UpdatePlan godoc
// @Summary Update a plan's descriptive fields
// @Description Creator-only. Live schedule fields move through the lifecycle endpoints instead.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param plan body UpdatePlanRequest true "New field values"
// @Success 200 {object} PlanResponse "Plan updated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (archived plans are immutable)"
// @Router /plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), caller, planID, service.UpdatePlanInput{
		Title:               req.Title,
		Description:         req.Description,
		IsPublic:            req.IsPublic,
		DurationDays:        req.DurationDays,
		Goal:                req.Goal,
		DifficultyLevel:     req.DifficultyLevel,
		BudgetLevel:         req.BudgetLevel,
		DietaryRestrictions: req.DietaryRestrictions,
	})
	if err != nil {
		respondPlanWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan, caller.Today))
}

// DeactivatePlan godoc
// @Summary Soft-delete a plan
// @Description Creator-only. The plan disappears from every surface until reactivated.
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204 "Plan deactivated"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id} [delete]
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	if err := h.planService.DeactivatePlan(c.Request.Context(), caller, planID); err != nil {
		respondPlanWriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivatePlan godoc
// @Summary Reactivate a soft-deleted plan
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204 "Plan reactivated"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/activate [post]
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	if err := h.planService.ActivatePlan(c.Request.Context(), caller, planID); err != nil {
		respondPlanWriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Live lifecycle ---

// PauseLivePlan godoc
// @Summary Pause a live plan
// @Description Coach-only. Turns the live flag off; the plan stops serving content.
// @Tags Live
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} PlanResponse "Plan paused"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (not a live plan)"
// @Router /plans/{id}/live/pause [post]
func (h *PlanHandler) PauseLivePlan(c *gin.Context) {
	h.runLifecycle(c, h.planService.PauseLivePlan, http.StatusOK)
}

// ResumeLivePlan godoc
// @Summary Resume a paused live plan
// @Description Coach-only. Fails when the plan's end date has already passed.
// @Tags Live
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} PlanResponse "Plan resumed"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (past end date, or not a live plan)"
// @Router /plans/{id}/live/resume [post]
func (h *PlanHandler) ResumeLivePlan(c *gin.Context) {
	h.runLifecycle(c, h.planService.ResumeLivePlan, http.StatusOK)
}

// FinishLivePlan godoc
// @Summary Finish a live plan
// @Description Coach-only. Turns the live flag off and stamps an end date if the plan has none.
// @Tags Live
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} PlanResponse "Plan finished"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (not a live plan)"
// @Router /plans/{id}/live/finish [post]
func (h *PlanHandler) FinishLivePlan(c *gin.Context) {
	h.runLifecycle(c, h.planService.FinishLivePlan, http.StatusOK)
}

// ArchiveLivePlan godoc
// @Summary Archive a finished live plan
// @Description Coach-only. Snapshots the plan and its content into a new archived plan and retires the source.
// @Tags Live
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 201 {object} PlanResponse "The archived copy"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (plan is not finished)"
// @Router /plans/{id}/live/archive [post]
func (h *PlanHandler) ArchiveLivePlan(c *gin.Context) {
	h.runLifecycle(c, h.planService.ArchiveLivePlan, http.StatusCreated)
}

// runLifecycle shares the shape of the four lifecycle endpoints.
func (h *PlanHandler) runLifecycle(c *gin.Context, op func(ctx context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error), successCode int) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	plan, err := op(c.Request.Context(), caller, planID)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	c.JSON(successCode, MapPlanToResponse(plan, caller.Today))
}

// --- Meal content ---

// UpsertMealDay godoc
// @Summary Write one day of meal content
// @Description Creator-only. Creates or replaces the content for the given day number.
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param day path int true "Day number (1-based)"
// @Param content body MealDayRequest true "Meal content"
// @Success 200 {object} MealDayResponse "Content saved"
// @Failure 400 {object} gin.H "Invalid input (day out of range)"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Conflict (archived plans are immutable)"
// @Router /plans/{id}/days/{day} [put]
func (h *PlanHandler) UpsertMealDay(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	dayNumber, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid day number")
		return
	}
	var req MealDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	day, err := h.contentService.UpsertMealDay(c.Request.Context(), caller, planID, service.MealDayInput{
		DayNumber: dayNumber,
		Breakfast: req.Breakfast,
		Lunch:     req.Lunch,
		Dinner:    req.Dinner,
		Snacks:    req.Snacks,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrMealDayOutOfRange) || errors.Is(err, service.ErrPlanValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			respondPlanWriteError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, MapMealDayToResponse(day))
}

// DeleteMealDay godoc
// @Summary Delete one day of meal content
// @Tags Content
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param day path int true "Day number (1-based)"
// @Success 204 "Content removed"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found (plan or day)"
// @Router /plans/{id}/days/{day} [delete]
func (h *PlanHandler) DeleteMealDay(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	dayNumber, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid day number")
		return
	}

	if err := h.contentService.DeleteMealDay(c.Request.Context(), caller, planID, dayNumber); err != nil {
		if errors.Is(err, service.ErrMealDayNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			respondPlanWriteError(c, err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMealDays godoc
// @Summary List a plan's meal content
// @Description Gated like the plan detail read: followers can read private plans they follow.
// @Tags Content
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {array} MealDayResponse "All content days in order"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/days [get]
func (h *PlanHandler) ListMealDays(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	days, err := h.contentService.ListMealDays(c.Request.Context(), caller, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrPlanAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to list meal days")
		}
		return
	}

	resp := make([]MealDayResponse, 0, len(days))
	for i := range days {
		resp = append(resp, MapMealDayToResponse(&days[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// --- Cover image ---

// RequestCoverUploadURL godoc
// @Summary Request a cover upload URL
// @Description Creator-only. Returns a presigned PUT URL for an image and the object key to confirm with.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param upload body UploadURLRequest true "Content type of the image"
// @Success 200 {object} service.UploadURLResponse "Presigned URL"
// @Failure 400 {object} gin.H "Not an image content type"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/cover/upload-url [post]
func (h *PlanHandler) RequestCoverUploadURL(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.planService.RequestCoverUploadURL(c.Request.Context(), caller, planID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrCoverNotImage) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrUploadURLError) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			respondPlanWriteError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmCoverUpload godoc
// @Summary Confirm a cover upload
// @Description Creator-only. Records the uploaded object as the plan's cover image.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param confirm body ConfirmUploadRequest true "Object key returned by upload-url"
// @Success 200 {object} PlanResponse "Plan with the new cover"
// @Failure 400 {object} gin.H "Object key does not belong to this plan"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/cover/confirm [post]
func (h *PlanHandler) ConfirmCoverUpload(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.ConfirmCoverUpload(c.Request.Context(), caller, planID, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrCoverKeyMismatch) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			respondPlanWriteError(c, err)
		}
		return
	}

	resp := MapPlanToResponse(plan, caller.Today)
	if url, err := h.planService.CoverDownloadURL(c.Request.Context(), plan); err == nil {
		resp.CoverImageURL = url
	}
	c.JSON(http.StatusOK, resp)
}

// --- Analytics ---

// GetPlanAnalytics godoc
// @Summary Plan follow analytics
// @Description Creator-only view of a plan's follow numbers, available even on deactivated plans.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} AnalyticsResponse "Follow numbers"
// @Failure 403 {object} gin.H "Forbidden (not the creator)"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/analytics [get]
func (h *PlanHandler) GetPlanAnalytics(c *gin.Context) {
	caller, planID, ok := callerAndPlanID(c)
	if !ok {
		return
	}
	analytics, err := h.planService.GetPlanAnalytics(c.Request.Context(), caller, planID)
	if err != nil {
		respondPlanWriteError(c, err)
		return
	}

	resp := AnalyticsResponse{
		PlanID:          analytics.PlanID.Hex(),
		ActiveFollowers: analytics.ActiveFollowers,
		TotalFollows:    analytics.TotalFollows,
		TotalUnfollows:  analytics.TotalUnfollows,
	}
	if analytics.LiveState != nil && analytics.LiveState.Status != domain.LiveStatusUnclassified {
		resp.LiveState = &LiveStateResponse{
			Status:     string(analytics.LiveState.Status),
			CurrentDay: analytics.LiveState.CurrentDay,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// --- Shared helpers ---

// callerAndPlanID pulls the caller and the :id path parameter, aborting on
// either failure.
func callerAndPlanID(c *gin.Context) (domain.CallerContext, primitive.ObjectID, bool) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return domain.CallerContext{}, primitive.NilObjectID, false
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan id format")
		return domain.CallerContext{}, primitive.NilObjectID, false
	}
	return caller, planID, true
}

// parseDateField parses an optional YYYY-MM-DD request field.
func parseDateField(c *gin.Context, name, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, name+" must be formatted YYYY-MM-DD")
		return nil, false
	}
	return &parsed, true
}

// respondPlanWriteError maps the common creator-write failures.
func respondPlanWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPlanCreator):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrArchivedImmutable):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPlanValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Request failed")
	}
}

// respondLifecycleError maps live lifecycle failures.
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanNotLive),
		errors.Is(err, service.ErrResumePastEndDate),
		errors.Is(err, service.ErrPlanNotArchivable):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Lifecycle operation failed")
	}
}

// MapMealDayToResponse converts a domain MealDay to its wire shape.
func MapMealDayToResponse(day *domain.MealDay) MealDayResponse {
	if day == nil {
		return MealDayResponse{}
	}
	return MealDayResponse{
		ID:        day.ID.Hex(),
		PlanID:    day.PlanID.Hex(),
		DayNumber: day.DayNumber,
		Breakfast: day.Breakfast,
		Lunch:     day.Lunch,
		Dinner:    day.Dinner,
		Snacks:    day.Snacks,
		Notes:     day.Notes,
	}
}
