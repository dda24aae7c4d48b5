package groups

import (
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

// MemberPulse answers "has this member logged in the current period".
type MemberPulse struct {
	Logged    bool
	LastLogAt *time.Time
}

// effectiveCadence picks the cadence that drives the group's pulse. Daily
// strictly dominates when present; otherwise the shortest cadence among the
// live goals wins.
func effectiveCadence(goals []models.Goal) string {
	rank := map[string]int{
		models.CadenceDaily:   0,
		models.CadenceWeekly:  1,
		models.CadenceMonthly: 2,
		models.CadenceYearly:  3,
	}
	best := ""
	for _, g := range goals {
		if best == "" || rank[g.Cadence] < rank[best] {
			best = g.Cadence
		}
	}
	return best
}

// pulseWindow is a member's current effective period, keyed and bounded in
// their own timezone.
type pulseWindow struct {
	periodKey   time.Time
	windowStart time.Time
	windowEnd   time.Time
}

// entryMatchesPulse decides whether one progress entry satisfies a member's
// current pulse. Entries on goals of the effective cadence match by canonical
// period key; entries on slower-cadence goals match when the log instant falls
// inside the member's current window.
func entryMatchesPulse(goalCadence, effective string, entryPeriodStart, loggedAt time.Time, win pulseWindow) bool {
	if goalCadence == effective {
		return entryPeriodStart.Equal(win.periodKey)
	}
	return !loggedAt.Before(win.windowStart) && loggedAt.Before(win.windowEnd)
}

// computePulse resolves the pulse for every listed member in one aggregate
// query. A group with zero live goals has no period to satisfy, so everyone
// reads as not logged.
func computePulse(db *gorm.DB, group *models.Group, members []models.GroupMembership, now time.Time) (map[uint]MemberPulse, error) {
	result := make(map[uint]MemberPulse, len(members))
	for _, m := range members {
		result[m.UserID] = MemberPulse{}
	}
	if len(members) == 0 {
		return result, nil
	}

	var goals []models.Goal
	if err := db.Where("group_id = ?", group.ID).Find(&goals).Error; err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return result, nil
	}

	effective := effectiveCadence(goals)
	cadenceByGoal := make(map[uint]string, len(goals))
	goalIDs := make([]uint, 0, len(goals))
	for _, g := range goals {
		cadenceByGoal[g.ID] = g.Cadence
		goalIDs = append(goalIDs, g.ID)
	}

	// Each member's period runs in their own timezone, not the group's.
	windows := make(map[uint]pulseWindow, len(members))
	memberIDs := make([]uint, 0, len(members))
	var minKey, minStart time.Time
	for _, m := range members {
		loc := time.UTC
		if m.User != nil {
			loc = m.User.Location()
		}
		start, end := utils.PeriodWindow(effective, now, loc)
		win := pulseWindow{
			periodKey:   utils.PeriodStart(effective, now, loc),
			windowStart: start,
			windowEnd:   end,
		}
		windows[m.UserID] = win
		memberIDs = append(memberIDs, m.UserID)
		if minKey.IsZero() || win.periodKey.Before(minKey) {
			minKey = win.periodKey
		}
		if minStart.IsZero() || win.windowStart.Before(minStart) {
			minStart = win.windowStart
		}
	}

	// One fetch for the whole group; matching happens in memory.
	var entries []models.ProgressEntry
	if err := db.
		Where("goal_id IN ? AND user_id IN ?", goalIDs, memberIDs).
		Where("period_start >= ? OR logged_at >= ?", minKey, minStart).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	for _, e := range entries {
		win, ok := windows[e.UserID]
		if !ok {
			continue
		}
		if !entryMatchesPulse(cadenceByGoal[e.GoalID], effective, e.PeriodStart, e.LoggedAt, win) {
			continue
		}
		p := result[e.UserID]
		p.Logged = true
		if p.LastLogAt == nil || e.LoggedAt.After(*p.LastLogAt) {
			t := e.LoggedAt
			p.LastLogAt = &t
		}
		result[e.UserID] = p
	}
	return result, nil
}
