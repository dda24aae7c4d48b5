package utils

import (
	"testing"
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeGoal_BinaryDaily(t *testing.T) {
	goal := &models.Goal{ID: 1, Cadence: models.CadenceDaily, MetricType: models.MetricBinary}
	entries := []models.ProgressEntry{
		{GoalID: 1, PeriodStart: day(2025, 6, 16), Value: 1},
		{GoalID: 1, PeriodStart: day(2025, 6, 17), Value: 1},
		{GoalID: 1, PeriodStart: day(2025, 6, 19), Value: 1},
	}
	s := SummarizeGoal(goal, entries, day(2025, 6, 16), day(2025, 6, 20))
	if s.Total != 5 {
		t.Fatalf("expected 5 periods, got %d", s.Total)
	}
	if s.Completed != 3 {
		t.Fatalf("expected 3 completed, got %v", s.Completed)
	}
	if s.Percentage != 60 {
		t.Fatalf("expected 60%%, got %v", s.Percentage)
	}
}

func TestSummarizeGoal_IgnoresOtherGoalsAndOutOfRange(t *testing.T) {
	goal := &models.Goal{ID: 1, Cadence: models.CadenceDaily, MetricType: models.MetricBinary}
	entries := []models.ProgressEntry{
		{GoalID: 2, PeriodStart: day(2025, 6, 16), Value: 1},  // other goal
		{GoalID: 1, PeriodStart: day(2025, 6, 10), Value: 1},  // before range
		{GoalID: 1, PeriodStart: day(2025, 6, 25), Value: 1},  // after range
		{GoalID: 1, PeriodStart: day(2025, 6, 17), Value: 1},
	}
	s := SummarizeGoal(goal, entries, day(2025, 6, 16), day(2025, 6, 20))
	if s.Completed != 1 {
		t.Fatalf("expected 1 completed, got %v", s.Completed)
	}
}

func TestSummarizeGoal_NumericWithTarget(t *testing.T) {
	target := 10.0
	goal := &models.Goal{ID: 1, Cadence: models.CadenceDaily, MetricType: models.MetricNumeric, TargetValue: &target}
	entries := []models.ProgressEntry{
		{GoalID: 1, PeriodStart: day(2025, 6, 16), Value: 5},
		{GoalID: 1, PeriodStart: day(2025, 6, 17), Value: 10},
	}
	// 2 days in range, target 10 each: 15 of 20 = 75%
	s := SummarizeGoal(goal, entries, day(2025, 6, 16), day(2025, 6, 17))
	if s.Completed != 15 {
		t.Fatalf("expected sum 15, got %v", s.Completed)
	}
	if s.Percentage != 75 {
		t.Fatalf("expected 75%%, got %v", s.Percentage)
	}
}

func TestSummarizeGoal_PercentageClamped(t *testing.T) {
	target := 1.0
	goal := &models.Goal{ID: 1, Cadence: models.CadenceDaily, MetricType: models.MetricNumeric, TargetValue: &target}
	entries := []models.ProgressEntry{
		{GoalID: 1, PeriodStart: day(2025, 6, 16), Value: 50},
	}
	s := SummarizeGoal(goal, entries, day(2025, 6, 16), day(2025, 6, 16))
	if s.Percentage != 100 {
		t.Fatalf("expected clamp to 100, got %v", s.Percentage)
	}
}

func TestSummarizeGoal_ZeroPeriods(t *testing.T) {
	active := "0,1,2,3,4" // weekdays only
	goal := &models.Goal{ID: 1, Cadence: models.CadenceDaily, MetricType: models.MetricBinary, ActiveDays: &active}
	// Saturday and Sunday only: zero active periods
	s := SummarizeGoal(goal, nil, day(2025, 6, 21), day(2025, 6, 22))
	if s.Total != 0 {
		t.Fatalf("expected 0 periods, got %d", s.Total)
	}
	if s.Percentage != 0 {
		t.Fatalf("division by zero must yield 0%%, got %v", s.Percentage)
	}
}

func TestSummarizeGoal_WeeklyCadence(t *testing.T) {
	goal := &models.Goal{ID: 1, Cadence: models.CadenceWeekly, MetricType: models.MetricBinary}
	entries := []models.ProgressEntry{
		{GoalID: 1, PeriodStart: day(2025, 6, 2), Value: 1},
		{GoalID: 1, PeriodStart: day(2025, 6, 9), Value: 1},
	}
	s := SummarizeGoal(goal, entries, day(2025, 6, 2), day(2025, 6, 22))
	if s.Total != 3 {
		t.Fatalf("expected 3 weeks, got %d", s.Total)
	}
	if s.Percentage != 66.7 {
		t.Fatalf("expected 66.7%%, got %v", s.Percentage)
	}
}
