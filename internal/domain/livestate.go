package domain

import "time"

// LiveStatus type for the derived schedule state of a live plan
type LiveStatus string

const (
	LiveStatusNotStarted   LiveStatus = "not_started"
	LiveStatusRunning      LiveStatus = "running"
	LiveStatusFinished     LiveStatus = "finished"
	LiveStatusUnclassified LiveStatus = "unclassified" // Internal only, never a valid filter value
)

// ParseLiveStatus maps a request string to a filterable status.
// Unclassified is deliberately not accepted: it is a fail-closed
// internal state, not something callers may ask for.
func ParseLiveStatus(s string) (LiveStatus, bool) {
	switch LiveStatus(s) {
	case LiveStatusNotStarted, LiveStatusRunning, LiveStatusFinished:
		return LiveStatus(s), true
	}
	return "", false
}

// LiveState is the derived, never-persisted schedule state of a live plan.
type LiveState struct {
	Status     LiveStatus `json:"status"`
	CurrentDay int        `json:"currentDay"` // 1-based once started, 0 otherwise
}

// DeriveLiveState computes the schedule state of a live plan for the given
// evaluation date. IsLiveActive is the operator's flag and wins over date
// arithmetic: a plan whose dates say "running" but whose flag is off was
// stopped early. Plans with contradictory data (no start date, or date-expired
// while still flagged active) come out unclassified so that filtered reads
// exclude them rather than guess.
//
// Only meaningful for live plans; callers check PlanType first.
func DeriveLiveState(p *Plan, today time.Time) LiveState {
	if p.LiveStartDate == nil {
		return LiveState{Status: LiveStatusUnclassified}
	}

	day := today.Truncate(24 * time.Hour)
	start := p.LiveStartDate.Truncate(24 * time.Hour)

	if start.After(day) {
		return LiveState{Status: LiveStatusNotStarted}
	}

	// Started: day arithmetic is valid from here on.
	currentDay := int(day.Sub(start).Hours()/24) + 1

	if !p.IsLiveActive {
		if p.LiveEndDate == nil {
			// Stopped without a recorded end: cannot tell finished from broken.
			return LiveState{Status: LiveStatusUnclassified, CurrentDay: currentDay}
		}
		return LiveState{Status: LiveStatusFinished, CurrentDay: currentDay}
	}

	if p.LiveEndDate == nil || !p.LiveEndDate.Truncate(24*time.Hour).Before(day) {
		return LiveState{Status: LiveStatusRunning, CurrentDay: currentDay}
	}

	// End date passed but the operator never finished the plan.
	return LiveState{Status: LiveStatusUnclassified, CurrentDay: currentDay}
}
