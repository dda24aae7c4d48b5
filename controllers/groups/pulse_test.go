package groups

import (
	"testing"
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"
)

func TestEffectiveCadence_DailyDominates(t *testing.T) {
	goals := []models.Goal{
		{Cadence: models.CadenceWeekly},
		{Cadence: models.CadenceDaily},
		{Cadence: models.CadenceMonthly},
	}
	if got := effectiveCadence(goals); got != models.CadenceDaily {
		t.Fatalf("expected daily, got %s", got)
	}
}

func TestEffectiveCadence_ShortestWins(t *testing.T) {
	goals := []models.Goal{
		{Cadence: models.CadenceMonthly},
		{Cadence: models.CadenceWeekly},
	}
	if got := effectiveCadence(goals); got != models.CadenceWeekly {
		t.Fatalf("expected weekly, got %s", got)
	}
}

func windowFor(t *testing.T, cadence string, ref time.Time, loc *time.Location) pulseWindow {
	t.Helper()
	start, end := utils.PeriodWindow(cadence, ref, loc)
	return pulseWindow{
		periodKey:   utils.PeriodStart(cadence, ref, loc),
		windowStart: start,
		windowEnd:   end,
	}
}

func TestEntryMatchesPulse_SameCadenceByPeriodKey(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	win := windowFor(t, models.CadenceDaily, now, time.UTC)

	today := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	if !entryMatchesPulse(models.CadenceDaily, models.CadenceDaily, today, now, win) {
		t.Fatal("entry keyed to today must satisfy the daily pulse")
	}
	if entryMatchesPulse(models.CadenceDaily, models.CadenceDaily, yesterday, now.AddDate(0, 0, -1), win) {
		t.Fatal("entry keyed to yesterday must not satisfy today's pulse")
	}
}

func TestEntryMatchesPulse_MixedCadence(t *testing.T) {
	// group has a daily and a weekly goal: daily drives the pulse
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	win := windowFor(t, models.CadenceDaily, now, time.UTC)
	weekKey := utils.PeriodStart(models.CadenceWeekly, now, time.UTC)

	// weekly entry logged today falls inside today's window
	if !entryMatchesPulse(models.CadenceWeekly, models.CadenceDaily, weekKey, now.Add(-time.Hour), win) {
		t.Fatal("weekly-goal entry logged today must satisfy the daily pulse")
	}
	// same weekly entry logged yesterday does not
	if entryMatchesPulse(models.CadenceWeekly, models.CadenceDaily, weekKey, now.AddDate(0, 0, -1), win) {
		t.Fatal("weekly-goal entry logged yesterday must not satisfy the daily pulse")
	}
}

func TestEntryMatchesPulse_WindowEndIsExclusive(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	win := windowFor(t, models.CadenceDaily, now, time.UTC)
	weekKey := utils.PeriodStart(models.CadenceWeekly, now, time.UTC)

	if entryMatchesPulse(models.CadenceWeekly, models.CadenceDaily, weekKey, win.windowEnd, win) {
		t.Fatal("log at exactly the window end belongs to the next period")
	}
	if !entryMatchesPulse(models.CadenceWeekly, models.CadenceDaily, weekKey, win.windowStart, win) {
		t.Fatal("log at exactly the window start belongs to this period")
	}
}
