package service

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/repository"
)

// In-memory doubles for the repository and storage interfaces. They mimic the
// store semantics the services rely on (not-found mapping, the active-follow
// uniqueness rule) and capture writes for assertions.

type stubPlanRepo struct {
	plans      map[primitive.ObjectID]domain.Plan
	createErr  error
	updateErr  error
	lastUpdate *domain.Plan
}

func newStubPlanRepo(plans ...domain.Plan) *stubPlanRepo {
	r := &stubPlanRepo{plans: make(map[primitive.ObjectID]domain.Plan)}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *stubPlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *stubPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := p
	return &c, nil
}

func (r *stubPlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	r.plans[plan.ID] = *plan
	saved := *plan
	r.lastUpdate = &saved
	return nil
}

func (r *stubPlanRepo) ListActiveByGym(_ context.Context, gymID primitive.ObjectID) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range r.plans {
		if p.GymID == gymID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPlanRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, id := range ids {
		if p, ok := r.plans[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPlanRepo) ListDateExpiredActive(_ context.Context, asOf time.Time) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range r.plans {
		if p.PlanType == domain.PlanTypeLive && p.IsActive && p.IsLiveActive &&
			p.LiveEndDate != nil && p.LiveEndDate.Before(asOf) {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubFollowRepo struct {
	records   map[primitive.ObjectID]domain.FollowRelationship
	createErr error
}

func newStubFollowRepo(records ...domain.FollowRelationship) *stubFollowRepo {
	r := &stubFollowRepo{records: make(map[primitive.ObjectID]domain.FollowRelationship)}
	for _, f := range records {
		r.records[f.ID] = f
	}
	return r
}

func (r *stubFollowRepo) Create(_ context.Context, follow *domain.FollowRelationship) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	for _, f := range r.records {
		if f.PlanID == follow.PlanID && f.UserID == follow.UserID && f.IsActive {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	follow.ID = primitive.NewObjectID()
	follow.IsActive = true
	if follow.FollowedAt.IsZero() {
		follow.FollowedAt = time.Now().UTC()
	}
	r.records[follow.ID] = *follow
	return follow.ID, nil
}

func (r *stubFollowRepo) GetActiveByPlanAndUser(_ context.Context, planID, userID primitive.ObjectID) (*domain.FollowRelationship, error) {
	for _, f := range r.records {
		if f.PlanID == planID && f.UserID == userID && f.IsActive {
			c := f
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubFollowRepo) ListActiveByUser(_ context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error) {
	var out []domain.FollowRelationship
	for _, f := range r.records {
		if f.GymID == gymID && f.UserID == userID && f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *stubFollowRepo) ListByUser(_ context.Context, gymID, userID primitive.ObjectID) ([]domain.FollowRelationship, error) {
	var out []domain.FollowRelationship
	for _, f := range r.records {
		if f.GymID == gymID && f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *stubFollowRepo) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f, ok := r.records[id]
	if !ok || !f.IsActive {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	f.IsActive = false
	f.UnfollowedAt = &now
	r.records[id] = f
	return nil
}

func (r *stubFollowRepo) CountActiveByPlan(_ context.Context, planID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range r.records {
		if f.PlanID == planID && f.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *stubFollowRepo) CountByPlan(_ context.Context, planID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range r.records {
		if f.PlanID == planID {
			n++
		}
	}
	return n, nil
}

type stubMealDayRepo struct {
	days map[primitive.ObjectID]map[int]domain.MealDay
}

func newStubMealDayRepo() *stubMealDayRepo {
	return &stubMealDayRepo{days: make(map[primitive.ObjectID]map[int]domain.MealDay)}
}

func (r *stubMealDayRepo) put(day domain.MealDay) {
	if r.days[day.PlanID] == nil {
		r.days[day.PlanID] = make(map[int]domain.MealDay)
	}
	r.days[day.PlanID][day.DayNumber] = day
}

func (r *stubMealDayRepo) Upsert(_ context.Context, day *domain.MealDay) (primitive.ObjectID, error) {
	if existing, ok := r.days[day.PlanID][day.DayNumber]; ok {
		day.ID = existing.ID
	} else if day.ID == primitive.NilObjectID {
		day.ID = primitive.NewObjectID()
	}
	r.put(*day)
	return day.ID, nil
}

func (r *stubMealDayRepo) CreateMany(_ context.Context, days []domain.MealDay) error {
	for _, d := range days {
		if d.ID == primitive.NilObjectID {
			d.ID = primitive.NewObjectID()
		}
		if _, ok := r.days[d.PlanID][d.DayNumber]; ok {
			return repository.ErrDuplicate
		}
		r.put(d)
	}
	return nil
}

func (r *stubMealDayRepo) GetByPlanAndDay(_ context.Context, planID primitive.ObjectID, dayNumber int) (*domain.MealDay, error) {
	d, ok := r.days[planID][dayNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := d
	return &c, nil
}

func (r *stubMealDayRepo) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]domain.MealDay, error) {
	var out []domain.MealDay
	for _, d := range r.days[planID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (r *stubMealDayRepo) DeleteByPlanAndDay(_ context.Context, planID primitive.ObjectID, dayNumber int) error {
	if _, ok := r.days[planID][dayNumber]; !ok {
		return repository.ErrNotFound
	}
	delete(r.days[planID], dayNumber)
	return nil
}

type stubFileStorage struct {
	uploadURL       string
	uploadErr       error
	downloadURL     string
	downloadErr     error
	deleteErr       error
	lastUploadKey   string
	lastContentType string
	lastDownloadKey string
	lastDeletedKey  string
}

func (s *stubFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, contentType string, _ time.Duration) (string, error) {
	s.lastUploadKey = objectKey
	s.lastContentType = contentType
	return s.uploadURL, s.uploadErr
}

func (s *stubFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	s.lastDownloadKey = objectKey
	return s.downloadURL, s.downloadErr
}

func (s *stubFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.lastDeletedKey = objectKey
	return s.deleteErr
}

// --- Shared fixtures ---

var serviceToday = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func sid(last byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = last
	return id
}

func sidPtr(last byte) *primitive.ObjectID {
	id := sid(last)
	return &id
}

var serviceGym = sid(0xA0)

func serviceCaller(userLast byte) domain.CallerContext {
	return domain.CallerContext{GymID: serviceGym, UserID: sidPtr(userLast), Today: serviceToday}
}

func dayPtr(t time.Time) *time.Time {
	return &t
}

func gymPlan(last byte, creatorLast byte, pt domain.PlanType) domain.Plan {
	return domain.Plan{
		ID:        sid(last),
		GymID:     serviceGym,
		CreatorID: sid(creatorLast),
		Title:     "Plan",
		IsPublic:  true,
		IsActive:  true,
		PlanType:  pt,
		CreatedAt: serviceToday.Add(-24 * time.Hour),
	}
}

func activeFollow(last byte, planLast, userLast byte, at time.Time) domain.FollowRelationship {
	return domain.FollowRelationship{
		ID:         sid(last),
		GymID:      serviceGym,
		PlanID:     sid(planLast),
		UserID:     sid(userLast),
		IsActive:   true,
		FollowedAt: at,
	}
}
