package groups

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

const heatCacheTTL = 5 * time.Minute

func heatCacheKey(groupID uint) string {
	return fmt.Sprintf("heat:group:%d", groupID)
}

// dailyGCRHistory builds the rolling group-commitment-ratio window ending
// yesterday: for each day, the fraction of active members who logged any
// daily goal for that day's period. Days are projected in UTC.
func dailyGCRHistory(db *gorm.DB, groupID uint, windowDays int, now time.Time) ([]float64, error) {
	var activeCount int64
	if err := db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND status = ?", groupID, models.StatusActive).
		Count(&activeCount).Error; err != nil {
		return nil, err
	}
	if activeCount == 0 {
		return nil, nil
	}

	var dailyGoalIDs []uint
	if err := db.Model(&models.Goal{}).
		Where("group_id = ? AND cadence = ?", groupID, models.CadenceDaily).
		Pluck("id", &dailyGoalIDs).Error; err != nil {
		return nil, err
	}
	if len(dailyGoalIDs) == 0 {
		return nil, nil
	}

	yesterday := utils.DateOf(now, time.UTC).AddDate(0, 0, -1)
	windowStart := yesterday.AddDate(0, 0, -(windowDays - 1))

	type dayRow struct {
		PeriodStart time.Time
		Users       int64
	}
	var rows []dayRow
	if err := db.Model(&models.ProgressEntry{}).
		Select("period_start, COUNT(DISTINCT user_id) AS users").
		Where("goal_id IN ? AND period_start BETWEEN ? AND ?", dailyGoalIDs, windowStart, yesterday).
		Group("period_start").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.PeriodStart.Format(utils.DateLayout)] = row.Users
	}

	history := make([]float64, 0, windowDays)
	for d := windowStart; !d.After(yesterday); d = d.AddDate(0, 0, 1) {
		users := byDay[d.Format(utils.DateLayout)]
		ratio := float64(users) / float64(activeCount)
		if ratio > 1 {
			ratio = 1
		}
		history = append(history, ratio)
	}
	return history, nil
}

// groupHeat resolves the group's heat snapshot, serving from Redis when a
// fresh value exists. Cache misses and Redis outages both fall through to a
// recompute.
func groupHeat(group *models.Group) (utils.HeatSnapshot, error) {
	if utils.RedisClient != nil {
		raw, err := utils.RedisClient.Get(context.Background(), heatCacheKey(group.ID)).Result()
		if err == nil && raw != "" {
			var cached utils.HeatSnapshot
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	cfg := utils.LoadHeatConfig()
	history, err := dailyGCRHistory(database.DB, group.ID, cfg.WindowDays, time.Now())
	if err != nil {
		return utils.HeatSnapshot{}, err
	}
	snapshot := utils.ComputeHeat(history, cfg)

	if utils.RedisClient != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			_ = utils.RedisClient.Set(context.Background(), heatCacheKey(group.ID), raw, heatCacheTTL).Err()
		}
	}
	return snapshot, nil
}

// GetGroupHeatHandler GET /groups/{id}/heat - full snapshot for active members
func GetGroupHeatHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid group id")
		return
	}
	group, ok := loadGroup(w, groupID)
	if !ok {
		return
	}
	if _, ok := requireActiveMember(w, groupID, uid); !ok {
		return
	}

	snapshot, err := groupHeat(group)
	if err != nil {
		utils.WriteInternalError(w)
		return
	}

	data := map[string]interface{}{"tier": snapshot.Tier}
	if snapshot.Tier > 0 {
		data["heat"] = snapshot
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: data})
}
