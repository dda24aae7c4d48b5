package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

// MeHandler GET /users/me
func MeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "User not found")
			return
		}
		utils.WriteInternalError(w)
		return
	}

	var groupCount int64
	if err := database.DB.Model(&models.GroupMembership{}).
		Where("user_id = ? AND status = ?", uid, models.StatusActive).
		Count(&groupCount).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"user":        user,
			"group_count": groupCount,
		},
	})
}

type updateMeRequest struct {
	Name     *string `json:"name"`
	Timezone *string `json:"timezone"`
	Profile  *string `json:"profile"`
}

// UpdateMeHandler PATCH /users/me - name, timezone and profile only. Timezone
// changes shift how this user's period keys are computed from now on; history
// keeps its stored keys.
func UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "name must be 1-100 characters")
			return
		}
		updates["name"] = name
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "timezone must be a valid IANA name")
			return
		}
		updates["timezone"] = *req.Timezone
	}
	if req.Profile != nil {
		updates["profile"] = *req.Profile
	}
	if len(updates) == 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "No updatable fields provided")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", uid).Updates(updates).Error; err != nil {
		log.Printf("[users/update] DB error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile updated",
		Data:    map[string]interface{}{"user": user},
	})
}

// ListMyGroupsHandler GET /users/me/groups - every group where the caller has
// a membership row, with its status and role.
func ListMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}

	var memberships []models.GroupMembership
	if err := database.DB.Where("user_id = ?", uid).
		Order("joined_at DESC").Find(&memberships).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	groupIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}
	groupsByID := make(map[uint]models.Group, len(groupIDs))
	if len(groupIDs) > 0 {
		var groups []models.Group
		if err := database.DB.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			utils.WriteInternalError(w)
			return
		}
		for _, g := range groups {
			groupsByID[g.ID] = g
		}
	}

	items := make([]map[string]interface{}, 0, len(memberships))
	for _, m := range memberships {
		g, ok := groupsByID[m.GroupID]
		if !ok {
			continue
		}
		items = append(items, map[string]interface{}{
			"group_id":   g.ID,
			"name":       g.Name,
			"visibility": g.Visibility,
			"role":       m.Role,
			"status":     m.Status,
			"joined_at":  m.JoinedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"groups": items},
	})
}
