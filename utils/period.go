package utils

import (
	"fmt"
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a timezone-naive date (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DateOf truncates an instant to its calendar date in loc, represented as a
// timezone-naive date (midnight UTC). This is the canonical storage form for
// period keys.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mondayOffset maps time.Weekday (Sunday=0) onto an ISO offset (Monday=0).
func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// PeriodStart maps (cadence, reference instant, timezone) to the canonical
// period key: the date itself for daily, Monday of the ISO week for weekly,
// the first of the month for monthly, January 1st for yearly. The result is a
// timezone-naive date. An unknown cadence is a programming error.
func PeriodStart(cadence string, ref time.Time, loc *time.Location) time.Time {
	day := DateOf(ref, loc)
	switch cadence {
	case models.CadenceDaily:
		return day
	case models.CadenceWeekly:
		return day.AddDate(0, 0, -mondayOffset(day.Weekday()))
	case models.CadenceMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	case models.CadenceYearly:
		return time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	panic(fmt.Sprintf("period: unknown cadence %q", cadence))
}

// NextPeriodStart returns the period key following the given one.
func NextPeriodStart(cadence string, periodStart time.Time) time.Time {
	switch cadence {
	case models.CadenceDaily:
		return periodStart.AddDate(0, 0, 1)
	case models.CadenceWeekly:
		return periodStart.AddDate(0, 0, 7)
	case models.CadenceMonthly:
		return periodStart.AddDate(0, 1, 0)
	case models.CadenceYearly:
		return periodStart.AddDate(1, 0, 0)
	}
	panic(fmt.Sprintf("period: unknown cadence %q", cadence))
}

// PeriodWindow returns the half-open instant range [start, end) of the period
// containing ref, as wall-clock midnights in loc. Used by the pulse
// aggregator to test whether a log instant falls inside the current period.
func PeriodWindow(cadence string, ref time.Time, loc *time.Location) (time.Time, time.Time) {
	key := PeriodStart(cadence, ref, loc)
	next := NextPeriodStart(cadence, key)
	start := time.Date(key.Year(), key.Month(), key.Day(), 0, 0, 0, 0, loc)
	end := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
	return start, end
}

// PeriodCount counts elapsed periods between two dates, inclusive. For daily
// cadence an active-day set (Monday=0) restricts which weekdays count; a nil
// set means every day. startDate/endDate are timezone-naive dates.
func PeriodCount(cadence string, startDate, endDate time.Time, activeDays map[int]bool) int {
	if endDate.Before(startDate) {
		return 0
	}
	if cadence == models.CadenceDaily {
		n := 0
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			if activeDays == nil || activeDays[mondayOffset(d.Weekday())] {
				n++
			}
		}
		return n
	}
	n := 0
	for p := PeriodStart(cadence, startDate, time.UTC); !p.After(endDate); p = NextPeriodStart(cadence, p) {
		n++
	}
	return n
}
