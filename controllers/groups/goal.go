package groups

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

// loadGoal fetches a live (non-deleted) goal or writes NOT_FOUND.
func loadGoal(w http.ResponseWriter, goalID uint) (*models.Goal, bool) {
	var goal models.Goal
	if err := database.DB.First(&goal, goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Goal not found")
			return nil, false
		}
		utils.WriteInternalError(w)
		return nil, false
	}
	return &goal, true
}

// CreateGoalHandler POST /groups/{id}/goals - creator/admin only
func CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := requireManager(w, groupID, uid); !ok {
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, err.Error())
		return
	}
	goal, msg := buildGoal(groupID, uid, req)
	if msg != "" {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, msg)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(goal).Error; err != nil {
			return err
		}
		return recordActivity(tx, groupID, uid, models.ActivityGoalCreated, map[string]interface{}{
			"goal_id":   goal.ID,
			"goal_name": goal.Name,
		})
	})
	if err != nil {
		log.Printf("[goals/create] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Goal created",
		Data:    map[string]interface{}{"goal": goal},
	})
}

// ListGoalsHandler GET /groups/{id}/goals - active members
func ListGoalsHandler(w http.ResponseWriter, r *http.Request) {
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

	var goals []models.Goal
	if err := database.DB.Where("group_id = ?", groupID).
		Order("created_at ASC").Find(&goals).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"goals": goals},
	})
}

type updateGoalRequest struct {
	Name        *string  `json:"name"`
	TargetValue *float64 `json:"target_value"`
	Unit        *string  `json:"unit"`
	ActiveDays  *string  `json:"active_days"`
}

// UpdateGoalHandler PATCH /goals/{id} - creator/admin of the owning group.
// Cadence and metric type are immutable; history would stop making sense.
func UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	goalID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid goal id")
		return
	}
	goal, ok := loadGoal(w, goalID)
	if !ok {
		return
	}
	if _, ok := requireManager(w, goal.GroupID, uid); !ok {
		return
	}

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "name cannot be empty")
			return
		}
		updates["name"] = *req.Name
	}
	if req.TargetValue != nil {
		updates["target_value"] = *req.TargetValue
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.ActiveDays != nil {
		if goal.Cadence != models.CadenceDaily {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "active_days is only valid for daily cadence")
			return
		}
		updates["active_days"] = *req.ActiveDays
	}
	if len(updates) == 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "No updatable fields provided")
		return
	}

	if err := database.DB.Model(goal).Updates(updates).Error; err != nil {
		log.Printf("[goals/update] DB error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Goal updated",
		Data:    map[string]interface{}{"goal": goal},
	})
}

// DeleteGoalHandler DELETE /goals/{id} - soft delete; history is retained and
// the goal simply stops participating in cadence and pulse logic.
func DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	goalID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid goal id")
		return
	}
	goal, ok := loadGoal(w, goalID)
	if !ok {
		return
	}
	if _, ok := requireManager(w, goal.GroupID, uid); !ok {
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(goal).Error; err != nil {
			return err
		}
		return recordActivity(tx, goal.GroupID, uid, models.ActivityGoalDeleted, map[string]interface{}{
			"goal_id":   goal.ID,
			"goal_name": goal.Name,
		})
	})
	if err != nil {
		log.Printf("[goals/delete] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Goal deleted"})
}
