package api

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/service"
)

func newCatalogRouter(caller domain.CallerContext, catalog *stubCatalogService, plans *stubPlanService) *gin.Engine {
	router := newTestRouter(caller, domain.RoleMember)
	h := NewCatalogHandler(catalog, plans, "https://plans.fitgym.test")
	router.GET("/plans", h.ListPlans)
	router.GET("/plans/categorized", h.GetCategorizedPlans)
	router.GET("/plans/:id", h.GetPlan)
	router.GET("/plans/:id/qr", h.GetPlanShareQR)
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/today", h.GetToday)
	return router
}

func TestListPlansForwardsFilterAndPaging(t *testing.T) {
	catalog := &stubCatalogService{
		plans: []domain.Plan{apiPlan(0x31, domain.PlanTypeLive)},
		total: 11,
	}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	creator := aid(0x01)
	w := doRequest(t, router, http.MethodGet,
		"/plans?page=2&limit=5&goal=weight_loss&difficulty=beginner&status=running&liveActive=true&creatorId="+creator.Hex()+"&q=shred&type=live&dietary=vegan&dietary=gluten_free&minDays=7&maxDays=30", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if catalog.lastPage != 2 || catalog.lastLimit != 5 {
		t.Fatalf("expected paging 2/5 forwarded, got %d/%d", catalog.lastPage, catalog.lastLimit)
	}
	f := catalog.lastFilter
	if f.Goal != "weight_loss" || f.DifficultyLevel != "beginner" || f.SearchQuery != "shred" {
		t.Fatalf("unexpected filter fields: %+v", f)
	}
	if f.Status == nil || *f.Status != domain.LiveStatusRunning {
		t.Fatalf("expected running status filter, got %v", f.Status)
	}
	if f.IsLiveActive == nil || !*f.IsLiveActive {
		t.Fatalf("expected liveActive filter, got %v", f.IsLiveActive)
	}
	if f.CreatorID == nil || *f.CreatorID != creator {
		t.Fatalf("expected creator filter, got %v", f.CreatorID)
	}
	if f.PlanType != domain.PlanTypeLive {
		t.Fatalf("expected live type filter, got %q", f.PlanType)
	}
	if len(f.DietaryRestrictions) != 2 {
		t.Fatalf("expected 2 dietary entries, got %v", f.DietaryRestrictions)
	}
	if f.DurationDaysMin != 7 || f.DurationDaysMax != 30 {
		t.Fatalf("unexpected duration bounds: %d..%d", f.DurationDaysMin, f.DurationDaysMax)
	}

	var resp PlanListResponse
	decodeBody(t, w, &resp)
	if resp.Page != 2 || resp.Limit != 5 || resp.Total != 11 || resp.TotalPages != 3 {
		t.Fatalf("unexpected paging envelope: %+v", resp)
	}
	if len(resp.Plans) != 1 {
		t.Fatalf("expected 1 plan in page, got %d", len(resp.Plans))
	}
}

func TestListPlansRejectsUnknownStatus(t *testing.T) {
	catalog := &stubCatalogService{}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/plans?status=unclassified", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if catalog.lastLimit != 0 {
		t.Fatalf("expected the service not to be called")
	}
}

func TestGetPlanSplitsNotFoundFromForbidden(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrPlanNotFound, http.StatusNotFound},
		{"forbidden", service.ErrPlanAccessDenied, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &stubCatalogService{planErr: tc.err}
			router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

			w := doRequest(t, router, http.MethodGet, "/plans/"+aid(0x31).Hex(), nil)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, w.Code)
			}
		})
	}
}

func TestGetPlanAttachesCoverURLAndHidesKey(t *testing.T) {
	plan := apiPlan(0x31, domain.PlanTypeTemplate)
	plan.CoverImageKey = "covers/" + plan.ID.Hex() + "/cover.png"
	catalog := &stubCatalogService{plan: &plan}
	planSvc := &stubPlanService{coverURL: "https://cdn.fitgym.test/covers/cover.png"}
	router := newCatalogRouter(apiCaller(0x11), catalog, planSvc)

	w := doRequest(t, router, http.MethodGet, "/plans/"+plan.ID.Hex(), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp PlanResponse
	decodeBody(t, w, &resp)
	if resp.CoverImageURL != planSvc.coverURL {
		t.Fatalf("expected cover url attached, got %q", resp.CoverImageURL)
	}
	if strings.Contains(w.Body.String(), "coverImageKey") || strings.Contains(w.Body.String(), plan.CoverImageKey) {
		t.Fatalf("raw object key leaked into the response: %s", w.Body.String())
	}
}

func TestGetPlanRendersLiveStateOnlyWhenClassified(t *testing.T) {
	start := apiToday.Add(-3 * 24 * time.Hour)
	running := apiPlan(0x31, domain.PlanTypeLive)
	running.LiveStartDate = &start
	running.IsLiveActive = true

	catalog := &stubCatalogService{plan: &running}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/plans/"+running.ID.Hex(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp PlanResponse
	decodeBody(t, w, &resp)
	if resp.LiveState == nil || resp.LiveState.Status != "running" || resp.LiveState.CurrentDay != 4 {
		t.Fatalf("expected running day 4, got %+v", resp.LiveState)
	}

	// A live plan with no dates derives the internal unclassified state,
	// which must never reach the wire.
	unclassified := apiPlan(0x32, domain.PlanTypeLive)
	catalog.plan = &unclassified
	w = doRequest(t, router, http.MethodGet, "/plans/"+unclassified.ID.Hex(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "liveState") {
		t.Fatalf("unclassified state leaked: %s", w.Body.String())
	}
}

func TestGetTodayEmptyWhenNothingScheduled(t *testing.T) {
	catalog := &stubCatalogService{today: &service.TodayPlan{}}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/today", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "{}" {
		t.Fatalf("expected an empty object, got %s", w.Body.String())
	}
}

func TestGetTodayRendersPlanAndMeal(t *testing.T) {
	plan := apiPlan(0x31, domain.PlanTypeLive)
	start := apiToday.Add(-1 * 24 * time.Hour)
	plan.LiveStartDate = &start
	plan.IsLiveActive = true
	meal := domain.MealDay{
		ID:        aid(0x51),
		PlanID:    plan.ID,
		GymID:     apiGym,
		DayNumber: 2,
		Breakfast: "oats",
	}
	catalog := &stubCatalogService{
		today: &service.TodayPlan{Plan: &plan, ContentDay: 2, Meal: &meal},
	}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/today", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp TodayResponse
	decodeBody(t, w, &resp)
	if resp.Plan == nil || resp.Plan.ID != plan.ID.Hex() {
		t.Fatalf("expected the resolved plan, got %+v", resp.Plan)
	}
	if resp.ContentDay != 2 {
		t.Fatalf("expected content day 2, got %d", resp.ContentDay)
	}
	if resp.Meal == nil || resp.Meal.Breakfast != "oats" {
		t.Fatalf("expected the day's meal, got %+v", resp.Meal)
	}
}

func TestGetDashboardShape(t *testing.T) {
	followed := apiPlan(0x31, domain.PlanTypeLive)
	available := apiPlan(0x32, domain.PlanTypeTemplate)
	catalog := &stubCatalogService{
		dashboard: &service.Dashboard{
			Followed:  engine.CategorizedPlans{Live: []domain.Plan{followed}},
			Available: []domain.Plan{available},
		},
	}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/dashboard", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp DashboardResponse
	decodeBody(t, w, &resp)
	if len(resp.Followed.Live) != 1 || resp.Followed.Live[0].ID != followed.ID.Hex() {
		t.Fatalf("unexpected followed bucket: %+v", resp.Followed)
	}
	if len(resp.Available) != 1 || resp.Available[0].ID != available.ID.Hex() {
		t.Fatalf("unexpected available rail: %+v", resp.Available)
	}
}

func TestGetCategorizedForwardsStatusFilter(t *testing.T) {
	catalog := &stubCatalogService{
		categorized: &engine.CategorizedPlans{
			Template: []domain.Plan{apiPlan(0x31, domain.PlanTypeTemplate)},
		},
	}
	router := newCatalogRouter(apiCaller(0x11), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/plans/categorized?status=running", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if catalog.lastStatusFilter != "running" {
		t.Fatalf("expected status forwarded, got %q", catalog.lastStatusFilter)
	}

	catalog.categorizedErr = service.ErrInvalidStatusFilter
	w = doRequest(t, router, http.MethodGet, "/plans/categorized?status=paused", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a rejected filter, got %d", w.Code)
	}
}

func TestShareQRRendersPNG(t *testing.T) {
	plan := apiPlan(0x31, domain.PlanTypeTemplate)
	catalog := &stubCatalogService{plan: &plan}
	router := newCatalogRouter(apiAnonCaller(), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/plans/"+plan.ID.Hex()+"/qr", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	body := w.Body.Bytes()
	if len(body) < 8 || !bytes.Equal(body[:4], []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("expected a PNG payload, got %d bytes", len(body))
	}
}

func TestShareQRGatedLikeDetailRead(t *testing.T) {
	catalog := &stubCatalogService{planErr: service.ErrPlanAccessDenied}
	router := newCatalogRouter(apiAnonCaller(), catalog, &stubPlanService{})

	w := doRequest(t, router, http.MethodGet, "/plans/"+aid(0x31).Hex()+"/qr", nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
