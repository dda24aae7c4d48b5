package groups

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListMembersHandler GET /groups/{id}/members - active members with pulse
func ListMembersHandler(w http.ResponseWriter, r *http.Request) {
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

	var members []models.GroupMembership
	if err := database.DB.Preload("User").
		Where("group_id = ? AND status = ?", groupID, models.StatusActive).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	pulse, err := computePulse(database.DB, group, members, time.Now())
	if err != nil {
		log.Printf("[groups/members] pulse error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	items := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		item := map[string]interface{}{
			"user_id":   m.UserID,
			"role":      m.Role,
			"joined_at": m.JoinedAt.Format(time.RFC3339),
		}
		if m.User != nil {
			item["name"] = m.User.Name
			item["profile"] = utils.GetStringValue(m.User.Profile)
		}
		p := pulse[m.UserID]
		item["logged_this_period"] = p.Logged
		if p.LastLogAt != nil {
			item["last_log_at"] = p.LastLogAt.Format(time.RFC3339)
		} else {
			item["last_log_at"] = nil
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"members":      items,
			"member_count": len(items),
		},
	})
}

// ListPendingMembersHandler GET /groups/{id}/members/pending - creator/admin
func ListPendingMembersHandler(w http.ResponseWriter, r *http.Request) {
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

	var pending []models.GroupMembership
	if err := database.DB.Preload("User").
		Where("group_id = ? AND status = ?", groupID, models.StatusPending).
		Order("joined_at ASC").
		Find(&pending).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	items := make([]map[string]interface{}, 0, len(pending))
	for _, m := range pending {
		item := map[string]interface{}{
			"user_id":      m.UserID,
			"requested_at": m.JoinedAt.Format(time.RFC3339),
		}
		if m.User != nil {
			item["name"] = m.User.Name
			item["profile"] = m.User.Profile
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"pending": items},
	})
}

// resolvePendingTarget locks and fetches a pending membership row for
// approve/decline. A target in any other state reads as absent.
func resolvePendingTarget(tx *gorm.DB, groupID, targetUserID uint) (*models.GroupMembership, error) {
	var target models.GroupMembership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? AND user_id = ?", groupID, targetUserID).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	if target.Status != models.StatusPending {
		return nil, gorm.ErrRecordNotFound
	}
	return &target, nil
}

// ApproveMemberHandler POST /groups/{id}/members/{userId}/approve
func ApproveMemberHandler(w http.ResponseWriter, r *http.Request) {
	decideMembership(w, r, true)
}

// DeclineMemberHandler POST /groups/{id}/members/{userId}/decline
func DeclineMemberHandler(w http.ResponseWriter, r *http.Request) {
	decideMembership(w, r, false)
}

func decideMembership(w http.ResponseWriter, r *http.Request, approve bool) {
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
	group, ok := loadGroup(w, groupID)
	if !ok {
		return
	}
	if _, ok := requireManager(w, groupID, uid); !ok {
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		target, err := resolvePendingTarget(tx, groupID, targetUserID)
		if err != nil {
			return err
		}
		if approve {
			var activeCount int64
			if err := tx.Model(&models.GroupMembership{}).
				Where("group_id = ? AND status = ?", groupID, models.StatusActive).
				Count(&activeCount).Error; err != nil {
				return err
			}
			if activeCount >= int64(group.SpotLimit) {
				return errGroupFull
			}
			if err := tx.Model(target).Updates(map[string]interface{}{
				"status":    models.StatusActive,
				"joined_at": time.Now(),
			}).Error; err != nil {
				return err
			}
			return recordActivity(tx, groupID, uid, models.ActivityMemberApproved, map[string]interface{}{
				"user_id": targetUserID,
			})
		}
		if err := tx.Model(target).Update("status", models.StatusDeclined).Error; err != nil {
			return err
		}
		return recordActivity(tx, groupID, uid, models.ActivityMemberDeclined, map[string]interface{}{
			"user_id": targetUserID,
		})
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "No pending membership for that user")
		return
	case errors.Is(err, errGroupFull):
		utils.WriteError(w, http.StatusConflict, utils.CodeGroupLimitReached, "The group has no open spots")
		return
	case err != nil:
		log.Printf("[groups/decide] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	msg := "Member approved"
	if !approve {
		msg = "Request declined"
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRoleHandler PATCH /groups/{id}/members/{userId} body {role}.
// The creator role is never assignable or removable through this path.
func UpdateMemberRoleHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := requireManager(w, groupID, uid); !ok {
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "role must be admin or member")
		return
	}
	if targetUserID == uid {
		utils.WriteError(w, http.StatusForbidden, utils.CodeCannotChangeOwnRole, "You cannot change your own role")
		return
	}

	var promoted bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var target models.GroupMembership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND user_id = ?", groupID, targetUserID).
			First(&target).Error; err != nil {
			return err
		}
		if target.Role == models.RoleCreator {
			return errCreatorRole
		}
		if target.Role == req.Role {
			return nil
		}
		promoted = req.Role == models.RoleAdmin
		if err := tx.Model(&target).Update("role", req.Role).Error; err != nil {
			return err
		}
		activityType := models.ActivityMemberDemoted
		if promoted {
			activityType = models.ActivityMemberPromoted
		}
		return recordActivity(tx, groupID, uid, activityType, map[string]interface{}{
			"user_id":  targetUserID,
			"new_role": req.Role,
		})
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Membership not found")
		return
	case errors.Is(err, errCreatorRole):
		utils.WriteError(w, http.StatusForbidden, utils.CodeCannotDemoteCreator, "The creator role cannot be changed")
		return
	case err != nil:
		log.Printf("[groups/role] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Role updated"})
}

// RemoveMemberHandler DELETE /groups/{id}/members/{userId} - creator/admin
// removes another member. Removing yourself routes through the departure flow.
func RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := requireManager(w, groupID, uid); !ok {
		return
	}

	if targetUserID == uid {
		leaveGroup(w, groupID, uid)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var target models.GroupMembership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND user_id = ?", groupID, targetUserID).
			First(&target).Error; err != nil {
			return err
		}
		if target.Role == models.RoleCreator {
			return errCreatorRole
		}
		_, err := departure(tx, groupID, &target, uid, models.ActivityMemberRemoved)
		return err
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Membership not found")
		return
	case errors.Is(err, errCreatorRole):
		utils.WriteError(w, http.StatusForbidden, utils.CodeCannotRemoveCreator, "The creator cannot be removed")
		return
	case err != nil:
		log.Printf("[groups/remove] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Member removed"})
}

// LeaveGroupHandler DELETE /groups/{id}/members/me
func LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
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
	leaveGroup(w, groupID, uid)
}

func leaveGroup(w http.ResponseWriter, groupID, userID uint) {
	var groupDeleted bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var me models.GroupMembership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			First(&me).Error; err != nil {
			return err
		}
		if me.Status != models.StatusActive {
			// Withdrawing a pending/declined request never promotes anyone.
			return tx.Delete(&models.GroupMembership{}, me.ID).Error
		}
		var err error
		groupDeleted, err = departure(tx, groupID, &me, userID, models.ActivityMemberLeft)
		return err
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Membership not found")
		return
	case err != nil:
		log.Printf("[groups/leave] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	msg := "Left group"
	if groupDeleted {
		msg = "Left group; the group was deleted because it became empty"
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: msg,
		Data:    map[string]interface{}{"group_deleted": groupDeleted},
	})
}

var errCreatorRole = errors.New("creator role is protected")
