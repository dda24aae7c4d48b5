package groups

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

const (
	defaultProgressLimit = 20
	maxProgressLimit     = 50
	freeTierWindowDays   = 30
	photoURLTTL          = 15 * time.Minute
)

// GetMemberProgressHandler GET /groups/{id}/members/{userId}/progress
// Query: start_date, end_date, cursor, limit.
func GetMemberProgressHandler(w http.ResponseWriter, r *http.Request) {
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
	targetUserID, err := pathID(r, "userId")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid user id")
		return
	}
	if _, ok := loadGroup(w, groupID); !ok {
		return
	}
	if _, ok := requireActiveMember(w, groupID, uid); !ok {
		return
	}

	target, err := findMembership(database.DB, groupID, targetUserID)
	if err != nil || target.Status != models.StatusActive {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteInternalError(w)
			return
		}
		utils.WriteError(w, http.StatusForbidden, utils.CodeTargetNotAMember, "That user is not an active member of this group")
		return
	}

	q := r.URL.Query()
	startDate, err1 := utils.ParseDate(q.Get("start_date"))
	endDate, err2 := utils.ParseDate(q.Get("end_date"))
	if err1 != nil || err2 != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "start_date and end_date must be YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeInvalidDateRange, "end_date is before start_date")
		return
	}

	limit := defaultProgressLimit
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxProgressLimit {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "limit must be between 1 and 50")
			return
		}
	}

	// Free tier is capped to an inclusive 30-day window.
	rangeDays := int(endDate.Sub(startDate).Hours()/24) + 1
	if rangeDays > freeTierWindowDays {
		var requester models.User
		if err := database.DB.First(&requester, uid).Error; err != nil {
			utils.WriteInternalError(w)
			return
		}
		if !requester.IsPremium {
			utils.WriteError(w, http.StatusForbidden, utils.CodeSubscriptionRequired, "Ranges over 30 days require a premium subscription")
			return
		}
	}

	var cursor *utils.Cursor
	if raw := q.Get("cursor"); raw != "" {
		cursor, err = utils.DecodeCursor(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeInvalidCursor, "Cursor is malformed")
			return
		}
	}

	var goals []models.Goal
	if err := database.DB.Where("group_id = ?", groupID).Find(&goals).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}
	goalIDs := make([]uint, 0, len(goals))
	goalNames := make(map[uint]string, len(goals))
	for _, g := range goals {
		goalIDs = append(goalIDs, g.ID)
		goalNames[g.ID] = g.Name
	}

	summaries := make([]utils.GoalSummary, 0, len(goals))
	page := []models.ProgressEntry{}
	if len(goalIDs) > 0 {
		var rangeEntries []models.ProgressEntry
		if err := database.DB.
			Where("goal_id IN ? AND user_id = ? AND period_start BETWEEN ? AND ?",
				goalIDs, targetUserID, startDate, endDate).
			Find(&rangeEntries).Error; err != nil {
			utils.WriteInternalError(w)
			return
		}
		for i := range goals {
			summaries = append(summaries, utils.SummarizeGoal(&goals[i], rangeEntries, startDate, endDate))
		}

		pageQuery := database.DB.
			Where("goal_id IN ? AND user_id = ? AND period_start BETWEEN ? AND ?",
				goalIDs, targetUserID, startDate, endDate)
		if cursor != nil {
			pageQuery = pageQuery.Where("logged_at < ? OR (logged_at = ? AND id < ?)",
				cursor.LoggedAt, cursor.LoggedAt, cursor.EntryID)
		}
		// Fetch one extra row to learn whether another page exists.
		if err := pageQuery.
			Order("logged_at DESC, id DESC").
			Limit(limit + 1).
			Find(&page).Error; err != nil {
			utils.WriteInternalError(w)
			return
		}
	}

	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}

	reactions, err := aggregateReactions(database.DB, page)
	if err != nil {
		log.Printf("[groups/progress] reaction aggregation error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	items := make([]map[string]interface{}, 0, len(page))
	for _, e := range page {
		item := map[string]interface{}{
			"id":           e.ID,
			"goal_id":      e.GoalID,
			"goal_name":    goalNames[e.GoalID],
			"value":        e.Value,
			"note":         e.Note,
			"period_start": e.PeriodStart.Format(utils.DateLayout),
			"logged_at":    e.LoggedAt.Format(time.RFC3339),
			"reactions":    reactions[e.ID],
		}
		if e.PhotoKey != nil {
			if url, err := utils.GenerateSignedURL(*e.PhotoKey, photoURLTTL); err == nil {
				item["photo_url"] = url
			} else {
				log.Printf("[groups/progress] presign error for entry %d: %v", e.ID, err)
			}
		}
		items = append(items, item)
	}

	var nextCursor interface{}
	if hasMore {
		last := page[len(page)-1]
		nextCursor = utils.EncodeCursor(last.LoggedAt, last.ID)
	}

	var targetUser models.User
	if err := database.DB.First(&targetUser, targetUserID).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"member": map[string]interface{}{
				"user_id":   targetUser.ID,
				"name":      targetUser.Name,
				"profile":   targetUser.Profile,
				"role":      target.Role,
				"joined_at": target.JoinedAt.Format(time.RFC3339),
			},
			"goal_summaries": summaries,
			"activity_log":   items,
			"pagination": map[string]interface{}{
				"has_more":    hasMore,
				"next_cursor": nextCursor,
			},
		},
	})
}

// aggregateReactions counts reactions per emoji for one page of entries.
func aggregateReactions(db *gorm.DB, entries []models.ProgressEntry) (map[uint]map[string]int64, error) {
	result := make(map[uint]map[string]int64, len(entries))
	if len(entries) == 0 {
		return result, nil
	}
	entryIDs := make([]uint, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
		result[e.ID] = map[string]int64{}
	}

	type reactionRow struct {
		EntryID uint
		Emoji   string
		Count   int64
	}
	var rows []reactionRow
	if err := db.Model(&models.ProgressReaction{}).
		Select("entry_id, emoji, COUNT(*) AS count").
		Where("entry_id IN ?", entryIDs).
		Group("entry_id, emoji").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.EntryID][row.Emoji] = row.Count
	}
	return result, nil
}
