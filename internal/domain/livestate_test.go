package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestDeriveLiveStateNotStartedBeforeStartDate(t *testing.T) {
	p := &Plan{PlanType: PlanTypeLive, LiveStartDate: datePtr(2026, 3, 10), IsLiveActive: true}

	state := DeriveLiveState(p, date(2026, 3, 9))
	if state.Status != LiveStatusNotStarted {
		t.Fatalf("expected not_started, got %q", state.Status)
	}
	if state.CurrentDay != 0 {
		t.Fatalf("expected day 0 before start, got %d", state.CurrentDay)
	}
}

func TestDeriveLiveStateRunningFromStartDate(t *testing.T) {
	p := &Plan{PlanType: PlanTypeLive, LiveStartDate: datePtr(2026, 3, 10), IsLiveActive: true}

	state := DeriveLiveState(p, date(2026, 3, 10))
	if state.Status != LiveStatusRunning {
		t.Fatalf("expected running on the start date, got %q", state.Status)
	}
	if state.CurrentDay != 1 {
		t.Fatalf("expected day 1 on the start date, got %d", state.CurrentDay)
	}

	state = DeriveLiveState(p, date(2026, 3, 24))
	if state.CurrentDay != 15 {
		t.Fatalf("expected day 15 two weeks in, got %d", state.CurrentDay)
	}
}

func TestDeriveLiveStateEndDateIsInclusive(t *testing.T) {
	p := &Plan{
		PlanType:      PlanTypeLive,
		LiveStartDate: datePtr(2026, 3, 1),
		LiveEndDate:   datePtr(2026, 3, 10),
		IsLiveActive:  true,
	}

	state := DeriveLiveState(p, date(2026, 3, 10))
	if state.Status != LiveStatusRunning {
		t.Fatalf("expected running on the end date, got %q", state.Status)
	}
}

func TestDeriveLiveStateFlagBeatsDates(t *testing.T) {
	// Operator stopped the plan mid-window: dates alone would say running.
	p := &Plan{
		PlanType:      PlanTypeLive,
		LiveStartDate: datePtr(2026, 3, 1),
		LiveEndDate:   datePtr(2026, 3, 30),
		IsLiveActive:  false,
	}

	state := DeriveLiveState(p, date(2026, 3, 15))
	if state.Status != LiveStatusFinished {
		t.Fatalf("expected finished when the flag is off, got %q", state.Status)
	}
	if state.CurrentDay != 15 {
		t.Fatalf("expected day arithmetic to survive finishing, got %d", state.CurrentDay)
	}
}

func TestDeriveLiveStateUnclassifiedWithoutStartDate(t *testing.T) {
	p := &Plan{PlanType: PlanTypeLive, IsLiveActive: true}

	state := DeriveLiveState(p, date(2026, 3, 15))
	if state.Status != LiveStatusUnclassified {
		t.Fatalf("expected unclassified without a start date, got %q", state.Status)
	}
}

func TestDeriveLiveStateUnclassifiedWhenStoppedWithoutEndDate(t *testing.T) {
	p := &Plan{PlanType: PlanTypeLive, LiveStartDate: datePtr(2026, 3, 1), IsLiveActive: false}

	state := DeriveLiveState(p, date(2026, 3, 15))
	if state.Status != LiveStatusUnclassified {
		t.Fatalf("expected unclassified when stopped with no end date, got %q", state.Status)
	}
}

func TestDeriveLiveStateUnclassifiedWhenDateExpiredButStillActive(t *testing.T) {
	p := &Plan{
		PlanType:      PlanTypeLive,
		LiveStartDate: datePtr(2026, 3, 1),
		LiveEndDate:   datePtr(2026, 3, 10),
		IsLiveActive:  true,
	}

	state := DeriveLiveState(p, date(2026, 3, 11))
	if state.Status != LiveStatusUnclassified {
		t.Fatalf("expected unclassified past the end date while still active, got %q", state.Status)
	}
}

func TestParseLiveStatus(t *testing.T) {
	for _, valid := range []string{"not_started", "running", "finished"} {
		if _, ok := ParseLiveStatus(valid); !ok {
			t.Fatalf("expected %q to parse", valid)
		}
	}
	for _, invalid := range []string{"unclassified", "paused", "RUNNING", ""} {
		if _, ok := ParseLiveStatus(invalid); ok {
			t.Fatalf("expected %q to be rejected", invalid)
		}
	}
}
