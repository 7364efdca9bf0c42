package engine

import (
	"testing"
	"time"

	"fitgym/nutrition-app/internal/domain"
)

func planOfType(last byte, pt domain.PlanType, createdAt time.Time) domain.Plan {
	return domain.Plan{
		ID:        oid(last),
		GymID:     testGym,
		CreatorID: oid(0xEE),
		IsPublic:  true,
		IsActive:  true,
		PlanType:  pt,
		CreatedAt: createdAt,
	}
}

func TestCategorizeSplitsByPlanType(t *testing.T) {
	now := testToday
	plans := []domain.Plan{
		planOfType(1, domain.PlanTypeTemplate, now),
		planOfType(2, domain.PlanTypeLive, now),
		planOfType(3, domain.PlanTypeArchived, now),
		planOfType(4, domain.PlanTypeLive, now),
	}

	got := Categorize(plans, DefaultCategoryLimit)
	if len(got.Template) != 1 || len(got.Live) != 2 || len(got.Archived) != 1 {
		t.Fatalf("expected 1/2/1 split, got %d/%d/%d", len(got.Template), len(got.Live), len(got.Archived))
	}
}

func TestCategorizeOrdersNewestFirstWithIDTieBreak(t *testing.T) {
	older := testToday.Add(-48 * time.Hour)
	plans := []domain.Plan{
		planOfType(2, domain.PlanTypeTemplate, testToday),
		planOfType(1, domain.PlanTypeTemplate, testToday), // same timestamp, lower id
		planOfType(3, domain.PlanTypeTemplate, older),
	}

	got := Categorize(plans, DefaultCategoryLimit).Template
	if got[0].ID != oid(1) || got[1].ID != oid(2) || got[2].ID != oid(3) {
		t.Fatalf("expected order 1,2,3 got %v,%v,%v", got[0].ID.Hex(), got[1].ID.Hex(), got[2].ID.Hex())
	}
}

func TestCategorizeCapsEachBucketAfterSorting(t *testing.T) {
	var plans []domain.Plan
	for i := 0; i < 60; i++ {
		plans = append(plans, planOfType(byte(i+1), domain.PlanTypeLive, testToday.Add(-time.Duration(i)*time.Hour)))
	}

	got := Categorize(plans, DefaultCategoryLimit).Live
	if len(got) != DefaultCategoryLimit {
		t.Fatalf("expected bucket capped at %d, got %d", DefaultCategoryLimit, len(got))
	}
	// Cap keeps the newest plans, not an arbitrary page of them.
	if got[0].ID != oid(1) {
		t.Fatalf("expected newest plan first after capping, got %v", got[0].ID.Hex())
	}
	if got[len(got)-1].ID != oid(50) {
		t.Fatalf("expected cap to cut the oldest plans, got %v", got[len(got)-1].ID.Hex())
	}
}

func TestFilterByLiveStatusMatchesDerivedState(t *testing.T) {
	start := testToday.Add(-5 * 24 * time.Hour)
	end := testToday.Add(5 * 24 * time.Hour)
	future := testToday.Add(10 * 24 * time.Hour)

	running := planOfType(1, domain.PlanTypeLive, testToday)
	running.LiveStartDate = &start
	running.LiveEndDate = &end
	running.IsLiveActive = true

	notStarted := planOfType(2, domain.PlanTypeLive, testToday)
	notStarted.LiveStartDate = &future
	notStarted.IsLiveActive = true

	finished := planOfType(3, domain.PlanTypeLive, testToday)
	finished.LiveStartDate = &start
	finished.LiveEndDate = &end
	finished.IsLiveActive = false

	plans := []domain.Plan{running, notStarted, finished}

	got := FilterByLiveStatus(plans, domain.LiveStatusRunning, testToday)
	if len(got) != 1 || got[0].ID != running.ID {
		t.Fatalf("expected only the running plan, got %d plans", len(got))
	}
	got = FilterByLiveStatus(plans, domain.LiveStatusFinished, testToday)
	if len(got) != 1 || got[0].ID != finished.ID {
		t.Fatalf("expected only the finished plan, got %d plans", len(got))
	}
}

func TestFilterByLiveStatusDropsUnclassifiedAndNonLive(t *testing.T) {
	broken := planOfType(1, domain.PlanTypeLive, testToday)
	broken.IsLiveActive = true // no start date: unclassified

	expired := planOfType(2, domain.PlanTypeLive, testToday)
	start := testToday.Add(-20 * 24 * time.Hour)
	end := testToday.Add(-10 * 24 * time.Hour)
	expired.LiveStartDate = &start
	expired.LiveEndDate = &end
	expired.IsLiveActive = true // past end date but never finished: unclassified

	template := planOfType(3, domain.PlanTypeTemplate, testToday)

	for _, status := range []domain.LiveStatus{
		domain.LiveStatusNotStarted, domain.LiveStatusRunning, domain.LiveStatusFinished,
	} {
		got := FilterByLiveStatus([]domain.Plan{broken, expired, template}, status, testToday)
		if len(got) != 0 {
			t.Fatalf("expected no matches for %q, got %d", status, len(got))
		}
	}
}
