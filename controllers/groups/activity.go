package groups

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"
)

// ListActivityHandler GET /groups/{id}/activity?limit&offset - the audit feed
func ListActivityHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := loadGroup(w, groupID); !ok {
		return
	}
	if _, ok := requireActiveMember(w, groupID, uid); !ok {
		return
	}

	q := r.URL.Query()
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "limit must be between 1 and 100")
			return
		}
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "offset must be a non-negative integer")
			return
		}
	}

	var total int64
	if err := database.DB.Model(&models.GroupActivity{}).
		Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	var activities []models.GroupActivity
	if err := database.DB.Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&activities).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	items := make([]map[string]interface{}, 0, len(activities))
	for _, a := range activities {
		item := map[string]interface{}{
			"id":            a.ID,
			"user_id":       a.UserID,
			"activity_type": a.ActivityType,
			"created_at":    a.CreatedAt.Format(time.RFC3339),
		}
		if a.User != nil {
			item["user_name"] = a.User.Name
		}
		if a.Metadata != nil {
			var meta map[string]interface{}
			if json.Unmarshal([]byte(*a.Metadata), &meta) == nil {
				item["metadata"] = meta
			}
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"activities": items,
			"total":      total,
			"limit":      limit,
			"offset":     offset,
		},
	})
}
