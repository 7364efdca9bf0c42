// internal/api/catalog_handler.go
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/service"
)

// CatalogHandler serves the read surfaces: listings, plan detail, the
// dashboard, the today view and share QR codes.
type CatalogHandler struct {
	catalogService service.CatalogService
	planService    service.PlanService
	shareBaseURL   string
}

// NewCatalogHandler creates a new CatalogHandler. shareBaseURL is the public
// origin embedded in share QR codes.
func NewCatalogHandler(catalogService service.CatalogService, planService service.PlanService, shareBaseURL string) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		planService:    planService,
		shareBaseURL:   shareBaseURL,
	}
}

// --- Request/Response Structs ---

// ListPlansRequest captures the listing filters from the query string.
type ListPlansRequest struct {
	Page       int      `form:"page"`
	Limit      int      `form:"limit"`
	Goal       string   `form:"goal"`
	Difficulty string   `form:"difficulty"`
	Budget     string   `form:"budget"`
	Dietary    []string `form:"dietary"`
	CreatorID  string   `form:"creatorId"`
	Search     string   `form:"q"`
	PlanType   string   `form:"type"`
	Status     string   `form:"status"`
	LiveActive *bool    `form:"liveActive"`
	MinDays    int      `form:"minDays"`
	MaxDays    int      `form:"maxDays"`
}

type LiveStateResponse struct {
	Status     string `json:"status"`
	CurrentDay int    `json:"currentDay"`
}

// PlanResponse is the wire shape of a plan. Live plans carry their derived
// state; the internal unclassified state is never rendered.
type PlanResponse struct {
	ID                  string             `json:"id"`
	GymID               string             `json:"gymId"`
	CreatorID           string             `json:"creatorId"`
	Title               string             `json:"title"`
	Description         string             `json:"description,omitempty"`
	IsPublic            bool               `json:"isPublic"`
	IsActive            bool               `json:"isActive"`
	PlanType            domain.PlanType    `json:"planType"`
	LiveStartDate       *time.Time         `json:"liveStartDate,omitempty"`
	LiveEndDate         *time.Time         `json:"liveEndDate,omitempty"`
	LiveState           *LiveStateResponse `json:"liveState,omitempty"`
	SourcePlanID        *string            `json:"sourcePlanId,omitempty"`
	ArchivedAt          *time.Time         `json:"archivedAt,omitempty"`
	DurationDays        int                `json:"durationDays,omitempty"`
	Goal                string             `json:"goal,omitempty"`
	DifficultyLevel     string             `json:"difficultyLevel,omitempty"`
	BudgetLevel         string             `json:"budgetLevel,omitempty"`
	DietaryRestrictions []string           `json:"dietaryRestrictions,omitempty"`
	CoverImageURL       string             `json:"coverImageUrl,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type PlanListResponse struct {
	Plans      []PlanResponse `json:"plans"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

type CategorizedPlansResponse struct {
	Template []PlanResponse `json:"template"`
	Live     []PlanResponse `json:"live"`
	Archived []PlanResponse `json:"archived"`
}

type DashboardResponse struct {
	Followed  CategorizedPlansResponse `json:"followed"`
	Available []PlanResponse           `json:"available"`
}

type TodayResponse struct {
	Plan       *PlanResponse    `json:"plan,omitempty"`
	ContentDay int              `json:"contentDay,omitempty"`
	Meal       *MealDayResponse `json:"meal,omitempty"`
	StartsOn   *time.Time       `json:"startsOn,omitempty"`
}

// --- Handler Methods ---

// ListPlans godoc
// @Summary List visible plans
// @Description Returns one page of the plans the caller may browse, newest first.
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param status query string false "Live status filter: not_started, running or finished"
// @Success 200 {object} PlanListResponse "One page of plans"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans [get]
func (h *CatalogHandler) ListPlans(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}

	var req ListPlansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	filter, ok := buildListFilter(c, req)
	if !ok {
		return // buildListFilter already aborted
	}

	plans, total, err := h.catalogService.ListPlans(c.Request.Context(), caller, filter, req.Page, req.Limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list plans")
		return
	}

	page, limit := service.NormalizePaging(req.Page, req.Limit)
	totalPages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, PlanListResponse{
		Plans:      mapPlansToResponse(plans, caller.Today),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetPlan godoc
// @Summary Get a single plan
// @Description Fetches one plan by id. Followers can fetch private plans they follow.
// @Tags Catalog
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} PlanResponse "The plan"
// @Failure 403 {object} gin.H "Forbidden (plan exists but is not accessible)"
// @Failure 404 {object} gin.H "Not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans/{id} [get]
func (h *CatalogHandler) GetPlan(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan id format")
		return
	}

	plan, err := h.catalogService.GetPlan(c.Request.Context(), caller, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrPlanAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch plan")
		}
		return
	}

	resp := MapPlanToResponse(plan, caller.Today)
	if url, err := h.planService.CoverDownloadURL(c.Request.Context(), plan); err == nil {
		resp.CoverImageURL = url
	}
	c.JSON(http.StatusOK, resp)
}

// GetDashboard godoc
// @Summary Member dashboard
// @Description Returns the caller's followed plans, categorized, plus a short rail of public plans to discover.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardResponse "Dashboard"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /dashboard [get]
func (h *CatalogHandler) GetDashboard(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}

	dash, err := h.catalogService.GetDashboard(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to assemble dashboard")
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Followed:  mapCategorizedToResponse(dash.Followed, caller.Today),
		Available: mapPlansToResponse(dash.Available, caller.Today),
	})
}

// GetToday godoc
// @Summary Today's plan
// @Description Resolves the single followed plan that matters today, with its content for the day.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TodayResponse "Today surface; empty object when nothing is scheduled"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /today [get]
func (h *CatalogHandler) GetToday(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}

	today, err := h.catalogService.GetTodayPlan(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve today's plan")
		return
	}

	resp := TodayResponse{ContentDay: today.ContentDay, StartsOn: today.StartsOn}
	if today.Plan != nil {
		planResp := MapPlanToResponse(today.Plan, caller.Today)
		if url, err := h.planService.CoverDownloadURL(c.Request.Context(), today.Plan); err == nil {
			planResp.CoverImageURL = url
		}
		resp.Plan = &planResp
	}
	if today.Meal != nil {
		mealResp := MapMealDayToResponse(today.Meal)
		resp.Meal = &mealResp
	}
	c.JSON(http.StatusOK, resp)
}

// GetCategorizedPlans godoc
// @Summary Categorized plan listing
// @Description Returns all visible plans split into template, live and archived buckets.
// @Tags Catalog
// @Produce json
// @Param status query string false "Narrow the live bucket to one derived status"
// @Success 200 {object} CategorizedPlansResponse "Categorized plans"
// @Failure 400 {object} gin.H "Unknown status filter"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans/categorized [get]
func (h *CatalogHandler) GetCategorizedPlans(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}

	cat, err := h.catalogService.GetCategorizedPlans(c.Request.Context(), caller, c.Query("status"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatusFilter) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to categorize plans")
		}
		return
	}
	c.JSON(http.StatusOK, mapCategorizedToResponse(*cat, caller.Today))
}

// GetPlanShareQR godoc
// @Summary Share QR code for a plan
// @Description Renders a PNG QR code pointing at the plan's public page. Gated like the detail read.
// @Tags Catalog
// @Produce png
// @Param id path string true "Plan ID"
// @Success 200 {file} binary "PNG image"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans/{id}/qr [get]
func (h *CatalogHandler) GetPlanShareQR(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to resolve caller")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan id format")
		return
	}

	// The QR is only handed out for plans the caller could open anyway.
	plan, err := h.catalogService.GetPlan(c.Request.Context(), caller, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrPlanAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch plan")
		}
		return
	}

	shareURL := strings.TrimRight(h.shareBaseURL, "/") + "/plans/" + plan.ID.Hex()
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to render QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// --- Mapping helpers ---

// buildListFilter turns query parameters into an engine filter. It aborts
// with 400 on values that cannot mean anything.
func buildListFilter(c *gin.Context, req ListPlansRequest) (engine.ListFilter, bool) {
	filter := engine.ListFilter{
		Goal:                req.Goal,
		DifficultyLevel:     req.Difficulty,
		BudgetLevel:         req.Budget,
		DietaryRestrictions: req.Dietary,
		SearchQuery:         req.Search,
		PlanType:            domain.PlanType(req.PlanType),
		IsLiveActive:        req.LiveActive,
		DurationDaysMin:     req.MinDays,
		DurationDaysMax:     req.MaxDays,
	}
	if req.CreatorID != "" {
		creatorID, err := primitive.ObjectIDFromHex(req.CreatorID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid creator id format")
			return engine.ListFilter{}, false
		}
		filter.CreatorID = &creatorID
	}
	if req.Status != "" {
		status, ok := domain.ParseLiveStatus(req.Status)
		if !ok {
			abortWithError(c, http.StatusBadRequest, service.ErrInvalidStatusFilter.Error())
			return engine.ListFilter{}, false
		}
		filter.Status = &status
	}
	return filter, true
}

// MapPlanToResponse converts a domain Plan to its wire shape. The derived
// live state is attached for live plans unless it is unclassified.
func MapPlanToResponse(plan *domain.Plan, today time.Time) PlanResponse {
	if plan == nil {
		return PlanResponse{}
	}
	resp := PlanResponse{
		ID:                  plan.ID.Hex(),
		GymID:               plan.GymID.Hex(),
		CreatorID:           plan.CreatorID.Hex(),
		Title:               plan.Title,
		Description:         plan.Description,
		IsPublic:            plan.IsPublic,
		IsActive:            plan.IsActive,
		PlanType:            plan.PlanType,
		LiveStartDate:       plan.LiveStartDate,
		LiveEndDate:         plan.LiveEndDate,
		ArchivedAt:          plan.ArchivedAt,
		DurationDays:        plan.DurationDays,
		Goal:                plan.Goal,
		DifficultyLevel:     plan.DifficultyLevel,
		BudgetLevel:         plan.BudgetLevel,
		DietaryRestrictions: plan.DietaryRestrictions,
		CreatedAt:           plan.CreatedAt,
		UpdatedAt:           plan.UpdatedAt,
	}
	if plan.SourcePlanID != nil {
		hex := plan.SourcePlanID.Hex()
		resp.SourcePlanID = &hex
	}
	if plan.IsLive() {
		state := domain.DeriveLiveState(plan, today)
		if state.Status != domain.LiveStatusUnclassified {
			resp.LiveState = &LiveStateResponse{Status: string(state.Status), CurrentDay: state.CurrentDay}
		}
	}
	return resp
}

func mapPlansToResponse(plans []domain.Plan, today time.Time) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, MapPlanToResponse(&plans[i], today))
	}
	return out
}

func mapCategorizedToResponse(cat engine.CategorizedPlans, today time.Time) CategorizedPlansResponse {
	return CategorizedPlansResponse{
		Template: mapPlansToResponse(cat.Template, today),
		Live:     mapPlansToResponse(cat.Live, today),
		Archived: mapPlansToResponse(cat.Archived, today),
	}
}
