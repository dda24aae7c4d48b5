package utils

import (
	"testing"
)

func TestComputeHeat_EmptyHistoryIsCold(t *testing.T) {
	snap := ComputeHeat(nil, DefaultHeatConfig())
	if snap.Tier != 0 {
		t.Fatalf("expected tier 0, got %d", snap.Tier)
	}
	if snap.Label != "" {
		t.Fatalf("tier 0 must carry no label, got %q", snap.Label)
	}
}

func TestComputeHeat_TierFromScore(t *testing.T) {
	cfg := DefaultHeatConfig()
	// full commitment every day maxes the score
	history := []float64{1, 1, 1, 1, 1, 1, 1}
	snap := ComputeHeat(history, cfg)
	if snap.Score != 100 {
		t.Fatalf("expected score 100, got %v", snap.Score)
	}
	if snap.Tier != 7 {
		t.Fatalf("expected top tier, got %d", snap.Tier)
	}
	if snap.Label != "Supernova" {
		t.Fatalf("expected Supernova label, got %q", snap.Label)
	}
}

func TestComputeHeat_LowActivityStaysCold(t *testing.T) {
	history := []float64{0, 0.05, 0, 0.02}
	snap := ComputeHeat(history, DefaultHeatConfig())
	if snap.Tier != 0 {
		t.Fatalf("expected tier 0 for near-zero GCR, got %d", snap.Tier)
	}
}

func TestComputeHeat_Streak(t *testing.T) {
	cfg := DefaultHeatConfig()
	// two weak days then three strong ones; streak counts back from yesterday
	history := []float64{0.1, 0.1, 0.9, 0.9, 0.9}
	snap := ComputeHeat(history, cfg)
	if snap.StreakDays != 3 {
		t.Fatalf("expected streak of 3, got %d", snap.StreakDays)
	}
}

func TestComputeHeat_YesterdayAndBaseline(t *testing.T) {
	history := []float64{0.5, 0.5, 1.0}
	snap := ComputeHeat(history, DefaultHeatConfig())
	if snap.YesterdayGCR != 1.0 {
		t.Fatalf("expected yesterday 1.0, got %v", snap.YesterdayGCR)
	}
	if snap.BaselineGCR != 0.5 {
		t.Fatalf("expected baseline 0.5, got %v", snap.BaselineGCR)
	}
}

func TestLoadHeatConfig_Default(t *testing.T) {
	t.Setenv("HEAT_TIERS", "")
	cfg := LoadHeatConfig()
	if cfg.WindowDays != 14 || cfg.StreakTier != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadHeatConfig_Override(t *testing.T) {
	t.Setenv("HEAT_TIERS", `{"tier_bounds":[5,15,30,45,60,75,90],"streak_tier":2,"window_days":7}`)
	cfg := LoadHeatConfig()
	if cfg.WindowDays != 7 || cfg.StreakTier != 2 || cfg.TierBounds[0] != 5 {
		t.Fatalf("override not applied: %+v", cfg)
	}
}

func TestLoadHeatConfig_MalformedFallsBack(t *testing.T) {
	t.Setenv("HEAT_TIERS", "{not json")
	cfg := LoadHeatConfig()
	if cfg.WindowDays != 14 {
		t.Fatalf("expected defaults on malformed config, got %+v", cfg)
	}
}

func TestTierFor_Bounds(t *testing.T) {
	cfg := DefaultHeatConfig()
	cases := []struct {
		score float64
		tier  int
	}{
		{0, 0},
		{9.9, 0},
		{10, 1},
		{25, 2},
		{94.9, 6},
		{95, 7},
		{100, 7},
	}
	for _, c := range cases {
		if got := cfg.tierFor(c.score); got != c.tier {
			t.Fatalf("score %v: expected tier %d, got %d", c.score, c.tier, got)
		}
	}
}
