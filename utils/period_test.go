package utils

import (
	"testing"
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestPeriodStart_Daily(t *testing.T) {
	// Wednesday 2025-06-18
	ref := time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)
	got := PeriodStart(models.CadenceDaily, ref, time.UTC)
	want := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPeriodStart_DailyRespectsTimezone(t *testing.T) {
	tokyo := mustLoc(t, "Asia/Tokyo")
	// 23:00 UTC on the 18th is already the 19th in Tokyo
	ref := time.Date(2025, 6, 18, 23, 0, 0, 0, time.UTC)
	got := PeriodStart(models.CadenceDaily, ref, tokyo)
	want := time.Date(2025, 6, 19, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected Tokyo date %v, got %v", want, got)
	}
}

func TestPeriodStart_WeeklyIsMonday(t *testing.T) {
	// Sunday 2025-06-22 belongs to the ISO week starting Monday 2025-06-16
	ref := time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)
	got := PeriodStart(models.CadenceWeekly, ref, time.UTC)
	want := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected Monday %v, got %v", want, got)
	}

	// A Monday maps to itself
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(models.CadenceWeekly, monday, time.UTC); !got.Equal(want) {
		t.Fatalf("expected Monday to map to itself, got %v", got)
	}
}

func TestPeriodStart_MonthlyAndYearly(t *testing.T) {
	ref := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(models.CadenceMonthly, ref, time.UTC); !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly: got %v", got)
	}
	if got := PeriodStart(models.CadenceYearly, ref, time.UTC); !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("yearly: got %v", got)
	}
}

func TestPeriodStart_Idempotent(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	for _, cadence := range []string{models.CadenceDaily, models.CadenceWeekly, models.CadenceMonthly, models.CadenceYearly} {
		ref := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
		first := PeriodStart(cadence, ref, loc)
		second := PeriodStart(cadence, first, time.UTC)
		if !first.Equal(second) {
			t.Fatalf("%s: applying PeriodStart to its own result changed it: %v != %v", cadence, first, second)
		}
	}
}

func TestPeriodStart_SameWeekSameKey(t *testing.T) {
	// Every day of the week 2025-06-16..22 keys to the same Monday
	want := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	for d := 16; d <= 22; d++ {
		ref := time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC)
		if got := PeriodStart(models.CadenceWeekly, ref, time.UTC); !got.Equal(want) {
			t.Fatalf("day %d keyed to %v, want %v", d, got, want)
		}
	}
}

func TestPeriodStart_UnknownCadencePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unknown cadence")
		}
	}()
	PeriodStart("hourly", time.Now(), time.UTC)
}

func TestNextPeriodStart(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		cadence string
		want    time.Time
	}{
		{models.CadenceDaily, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{models.CadenceWeekly, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		{models.CadenceMonthly, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{models.CadenceYearly, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := NextPeriodStart(c.cadence, start); !got.Equal(c.want) {
			t.Fatalf("%s: expected %v, got %v", c.cadence, c.want, got)
		}
	}
}

func TestPeriodWindow_DailyBoundsInLocation(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	ref := time.Date(2025, 6, 18, 20, 0, 0, 0, ny)
	start, end := PeriodWindow(models.CadenceDaily, ref, ny)
	if !start.Equal(time.Date(2025, 6, 18, 0, 0, 0, 0, ny)) {
		t.Fatalf("window start: got %v", start)
	}
	if !end.Equal(time.Date(2025, 6, 19, 0, 0, 0, 0, ny)) {
		t.Fatalf("window end: got %v", end)
	}
	if !ref.After(start) || !ref.Before(end) {
		t.Fatal("reference instant should fall inside its own window")
	}
}

func TestPeriodCount_Daily(t *testing.T) {
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)   // Sunday
	if got := PeriodCount(models.CadenceDaily, start, end, nil); got != 7 {
		t.Fatalf("expected 7 days, got %d", got)
	}
	// weekdays only (Monday=0 .. Friday=4)
	weekdays := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	if got := PeriodCount(models.CadenceDaily, start, end, weekdays); got != 5 {
		t.Fatalf("expected 5 active days, got %d", got)
	}
}

func TestPeriodCount_WeeklyAndEmptyRange(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
	if got := PeriodCount(models.CadenceWeekly, start, end, nil); got != 3 {
		t.Fatalf("expected 3 weeks, got %d", got)
	}
	if got := PeriodCount(models.CadenceDaily, end, start, nil); got != 0 {
		t.Fatalf("inverted range should count 0, got %d", got)
	}
}
