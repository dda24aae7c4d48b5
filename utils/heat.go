package utils

import (
	"encoding/json"
	"os"
)

// HeatSnapshot is a read-derived projection of a group's recent commitment.
// Tier 0 means cold and is suppressed from client-facing summaries.
type HeatSnapshot struct {
	Tier         int     `json:"tier"`
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
	StreakDays   int     `json:"streak_days"`
	YesterdayGCR float64 `json:"yesterday_gcr"`
	BaselineGCR  float64 `json:"baseline_gcr"`
}

// HeatConfig holds the tier lookup table. Bounds are minimum scores (0-100)
// for tiers 1..7 in ascending order; StreakTier is the minimum tier a day
// must reach to extend the streak; WindowDays is the rolling GCR history.
type HeatConfig struct {
	TierBounds [7]float64 `json:"tier_bounds"`
	StreakTier int        `json:"streak_tier"`
	WindowDays int        `json:"window_days"`
}

var heatLabels = [8]string{"", "Ember", "Flicker", "Flame", "Blaze", "Bonfire", "Inferno", "Supernova"}

func DefaultHeatConfig() HeatConfig {
	return HeatConfig{
		TierBounds: [7]float64{10, 25, 40, 55, 70, 85, 95},
		StreakTier: 3,
		WindowDays: 14,
	}
}

// LoadHeatConfig reads HEAT_TIERS (a JSON HeatConfig) from the environment,
// falling back to defaults when unset or malformed.
func LoadHeatConfig() HeatConfig {
	cfg := DefaultHeatConfig()
	raw := os.Getenv("HEAT_TIERS")
	if raw == "" {
		return cfg
	}
	var override HeatConfig
	if err := json.Unmarshal([]byte(raw), &override); err != nil {
		return cfg
	}
	if override.WindowDays <= 0 {
		override.WindowDays = cfg.WindowDays
	}
	if override.StreakTier <= 0 {
		override.StreakTier = cfg.StreakTier
	}
	return override
}

func (c HeatConfig) tierFor(score float64) int {
	tier := 0
	for i, bound := range c.TierBounds {
		if score >= bound {
			tier = i + 1
		}
	}
	return tier
}

// ComputeHeat derives tier/score/streak from a rolling window of daily group
// commitment ratios, oldest first with the last element being yesterday.
// An empty history yields a cold snapshot.
func ComputeHeat(dailyGCR []float64, cfg HeatConfig) HeatSnapshot {
	if len(dailyGCR) == 0 {
		return HeatSnapshot{}
	}

	sum := 0.0
	for _, g := range dailyGCR {
		sum += g
	}
	score := RoundFloat(sum/float64(len(dailyGCR))*100, 1)

	yesterday := dailyGCR[len(dailyGCR)-1]
	baseline := yesterday
	if len(dailyGCR) > 1 {
		prior := 0.0
		for _, g := range dailyGCR[:len(dailyGCR)-1] {
			prior += g
		}
		baseline = prior / float64(len(dailyGCR)-1)
	}

	streak := 0
	for i := len(dailyGCR) - 1; i >= 0; i-- {
		if cfg.tierFor(dailyGCR[i]*100) < cfg.StreakTier {
			break
		}
		streak++
	}

	tier := cfg.tierFor(score)
	return HeatSnapshot{
		Tier:         tier,
		Label:        heatLabels[tier],
		Score:        score,
		StreakDays:   streak,
		YesterdayGCR: RoundFloat(yesterday, 3),
		BaselineGCR:  RoundFloat(baseline, 3),
	}
}
