package utils

import (
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
)

// GoalSummary is the per-goal completion rollup for a date range.
type GoalSummary struct {
	GoalID     uint    `json:"goal_id"`
	Name       string  `json:"name"`
	Cadence    string  `json:"cadence"`
	MetricType string  `json:"metric_type"`
	Completed  float64 `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SummarizeGoal rolls up the given entries for one goal over [startDate,
// endDate]. Total is the count of elapsed periods in range; completed counts
// entries for binary-style metrics and sums values for numeric/duration.
// Percentage is clamped to [0,100] and is 0 when no periods have elapsed.
func SummarizeGoal(goal *models.Goal, entries []models.ProgressEntry, startDate, endDate time.Time) GoalSummary {
	s := GoalSummary{
		GoalID:     goal.ID,
		Name:       goal.Name,
		Cadence:    goal.Cadence,
		MetricType: goal.MetricType,
	}

	var activeDays map[int]bool
	if goal.Cadence == models.CadenceDaily {
		activeDays = goal.ActiveWeekdays()
	}
	s.Total = PeriodCount(goal.Cadence, startDate, endDate, activeDays)

	count := 0
	sum := 0.0
	for _, e := range entries {
		if e.GoalID != goal.ID {
			continue
		}
		if e.PeriodStart.Before(startDate) || e.PeriodStart.After(endDate) {
			continue
		}
		count++
		sum += e.Value
	}

	switch goal.MetricType {
	case models.MetricNumeric, models.MetricDuration:
		s.Completed = sum
		if s.Total > 0 && goal.TargetValue != nil && *goal.TargetValue > 0 {
			s.Percentage = sum / (*goal.TargetValue * float64(s.Total)) * 100
		} else if s.Total > 0 {
			s.Percentage = float64(count) / float64(s.Total) * 100
		}
	default:
		s.Completed = float64(count)
		if s.Total > 0 {
			s.Percentage = float64(count) / float64(s.Total) * 100
		}
	}

	s.Percentage = RoundFloat(Clamp(s.Percentage, 0, 100), 1)
	return s
}
