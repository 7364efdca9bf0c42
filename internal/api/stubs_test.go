package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/engine"
	"fitgym/nutrition-app/internal/service"
)

// --- Service stubs ---

type stubCatalogService struct {
	plans            []domain.Plan
	total            int
	listErr          error
	plan             *domain.Plan
	planErr          error
	dashboard        *service.Dashboard
	dashboardErr     error
	today            *service.TodayPlan
	todayErr         error
	categorized      *engine.CategorizedPlans
	categorizedErr   error
	lastCaller       domain.CallerContext
	lastFilter       engine.ListFilter
	lastPage         int
	lastLimit        int
	lastPlanID       primitive.ObjectID
	lastStatusFilter string
}

func (s *stubCatalogService) ListPlans(_ context.Context, caller domain.CallerContext, filter engine.ListFilter, page, limit int) ([]domain.Plan, int, error) {
	s.lastCaller = caller
	s.lastFilter = filter
	s.lastPage = page
	s.lastLimit = limit
	return s.plans, s.total, s.listErr
}

func (s *stubCatalogService) GetPlan(_ context.Context, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	s.lastCaller = caller
	s.lastPlanID = planID
	return s.plan, s.planErr
}

func (s *stubCatalogService) GetDashboard(_ context.Context, caller domain.CallerContext) (*service.Dashboard, error) {
	s.lastCaller = caller
	return s.dashboard, s.dashboardErr
}

func (s *stubCatalogService) GetTodayPlan(_ context.Context, caller domain.CallerContext) (*service.TodayPlan, error) {
	s.lastCaller = caller
	return s.today, s.todayErr
}

func (s *stubCatalogService) GetCategorizedPlans(_ context.Context, caller domain.CallerContext, statusFilter string) (*engine.CategorizedPlans, error) {
	s.lastCaller = caller
	s.lastStatusFilter = statusFilter
	return s.categorized, s.categorizedErr
}

type stubPlanService struct {
	createResult    *domain.Plan
	createErr       error
	lastCreateInput service.CreatePlanInput
	updateResult    *domain.Plan
	updateErr       error
	lastUpdateInput service.UpdatePlanInput
	deactivateErr   error
	activateErr     error
	lifecycleResult *domain.Plan
	lifecycleErr    error
	lastLifecycleOp string
	sweepResult     []domain.Plan
	sweepErr        error
	uploadResp      *service.UploadURLResponse
	uploadErr       error
	lastContentType string
	confirmResult   *domain.Plan
	confirmErr      error
	lastObjectKey   string
	coverURL        string
	coverErr        error
	analytics       *service.PlanAnalytics
	analyticsErr    error
	lastPlanID      primitive.ObjectID
}

func (s *stubPlanService) CreatePlan(_ context.Context, _ domain.CallerContext, input service.CreatePlanInput) (*domain.Plan, error) {
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubPlanService) UpdatePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID, input service.UpdatePlanInput) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastUpdateInput = input
	return s.updateResult, s.updateErr
}

func (s *stubPlanService) DeactivatePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) error {
	s.lastPlanID = planID
	return s.deactivateErr
}

func (s *stubPlanService) ActivatePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) error {
	s.lastPlanID = planID
	return s.activateErr
}

func (s *stubPlanService) PauseLivePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastLifecycleOp = "pause"
	return s.lifecycleResult, s.lifecycleErr
}

func (s *stubPlanService) ResumeLivePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastLifecycleOp = "resume"
	return s.lifecycleResult, s.lifecycleErr
}

func (s *stubPlanService) FinishLivePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastLifecycleOp = "finish"
	return s.lifecycleResult, s.lifecycleErr
}

func (s *stubPlanService) ArchiveLivePlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastLifecycleOp = "archive"
	return s.lifecycleResult, s.lifecycleErr
}

func (s *stubPlanService) SweepExpiredLivePlans(_ context.Context, _ time.Time) ([]domain.Plan, error) {
	return s.sweepResult, s.sweepErr
}

func (s *stubPlanService) RequestCoverUploadURL(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID, contentType string) (*service.UploadURLResponse, error) {
	s.lastPlanID = planID
	s.lastContentType = contentType
	return s.uploadResp, s.uploadErr
}

func (s *stubPlanService) ConfirmCoverUpload(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID, objectKey string) (*domain.Plan, error) {
	s.lastPlanID = planID
	s.lastObjectKey = objectKey
	return s.confirmResult, s.confirmErr
}

func (s *stubPlanService) CoverDownloadURL(_ context.Context, _ *domain.Plan) (string, error) {
	return s.coverURL, s.coverErr
}

func (s *stubPlanService) GetPlanAnalytics(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*service.PlanAnalytics, error) {
	s.lastPlanID = planID
	return s.analytics, s.analyticsErr
}

type stubContentService struct {
	upsertResult    *domain.MealDay
	upsertErr       error
	lastUpsertInput service.MealDayInput
	deleteErr       error
	lastDeletedDay  int
	days            []domain.MealDay
	listErr         error
	lastPlanID      primitive.ObjectID
}

func (s *stubContentService) UpsertMealDay(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID, input service.MealDayInput) (*domain.MealDay, error) {
	s.lastPlanID = planID
	s.lastUpsertInput = input
	return s.upsertResult, s.upsertErr
}

func (s *stubContentService) DeleteMealDay(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID, dayNumber int) error {
	s.lastPlanID = planID
	s.lastDeletedDay = dayNumber
	return s.deleteErr
}

func (s *stubContentService) ListMealDays(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) ([]domain.MealDay, error) {
	s.lastPlanID = planID
	return s.days, s.listErr
}

func (s *stubContentService) BuildCalendar(_ context.Context, _ domain.CallerContext, _ []domain.FollowRelationship, _ []domain.Plan) (*service.PlanContentCalendar, error) {
	return nil, nil
}

func (s *stubContentService) GetMealDay(_ context.Context, _ primitive.ObjectID, _ int) (*domain.MealDay, error) {
	return nil, nil
}

type stubFollowService struct {
	follow      *domain.FollowRelationship
	followErr   error
	unfollowErr error
	history     []domain.FollowRelationship
	historyErr  error
	lastPlanID  primitive.ObjectID
}

func (s *stubFollowService) FollowPlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) (*domain.FollowRelationship, error) {
	s.lastPlanID = planID
	return s.follow, s.followErr
}

func (s *stubFollowService) UnfollowPlan(_ context.Context, _ domain.CallerContext, planID primitive.ObjectID) error {
	s.lastPlanID = planID
	return s.unfollowErr
}

func (s *stubFollowService) GetFollowHistory(_ context.Context, _ domain.CallerContext) ([]domain.FollowRelationship, error) {
	return s.history, s.historyErr
}

type stubAuthService struct {
	user        *domain.User
	registerErr error
	token       string
	loginErr    error
	lastEmail   string
}

func (s *stubAuthService) Register(_ context.Context, _ primitive.ObjectID, _, email, _ string, _ domain.Role) (*domain.User, error) {
	s.lastEmail = email
	return s.user, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	s.lastEmail = email
	return s.token, s.user, s.loginErr
}

func (s *stubAuthService) GetJWTSecret() string {
	return "test-secret"
}

// --- Shared fixtures ---

// Fixed evaluation date so derived-state assertions stay stable.
var apiToday = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

var apiGym = aid(0xA0)

func aid(last byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = last
	return id
}

func aidPtr(last byte) *primitive.ObjectID {
	id := aid(last)
	return &id
}

func apiCaller(userLast byte) domain.CallerContext {
	return domain.CallerContext{GymID: apiGym, UserID: aidPtr(userLast), Today: apiToday}
}

func apiAnonCaller() domain.CallerContext {
	return domain.CallerContext{GymID: apiGym, Today: apiToday}
}

func apiPlan(last byte, planType domain.PlanType) domain.Plan {
	return domain.Plan{
		ID:        aid(last),
		GymID:     apiGym,
		CreatorID: aid(0x01),
		Title:     "Test plan",
		IsPublic:  true,
		IsActive:  true,
		PlanType:  planType,
		CreatedAt: apiToday.Add(-24 * time.Hour),
		UpdatedAt: apiToday.Add(-24 * time.Hour),
	}
}

// --- Request helpers ---

// newTestRouter returns an engine with the caller context pre-populated the
// way the auth middleware populates it in production.
func newTestRouter(caller domain.CallerContext, role domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextCallerKey, caller)
		if caller.UserID != nil {
			c.Set(ContextUserIDKey, caller.UserID.Hex())
			c.Set(ContextUserRoleKey, role)
		}
		c.Next()
	})
	return router
}

type headerOption func(*http.Request)

func withHeader(key, value string) headerOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body io.Reader, opts ...headerOption) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}
