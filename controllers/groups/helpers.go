package groups

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// loadGroup fetches the group or writes NOT_FOUND.
func loadGroup(w http.ResponseWriter, groupID uint) (*models.Group, bool) {
	var group models.Group
	if err := database.DB.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Group not found")
			return nil, false
		}
		utils.WriteInternalError(w)
		return nil, false
	}
	return &group, true
}

func findMembership(db *gorm.DB, groupID, userID uint) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// requireActiveMember enforces that the caller holds an active membership in
// this specific group. Pending callers get PENDING_APPROVAL; everyone else
// gets FORBIDDEN. Authorization is always scoped to the group in the path.
func requireActiveMember(w http.ResponseWriter, groupID, userID uint) (*models.GroupMembership, bool) {
	m, err := findMembership(database.DB, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "You are not a member of this group")
			return nil, false
		}
		utils.WriteInternalError(w)
		return nil, false
	}
	if m.Status == models.StatusPending {
		utils.WriteError(w, http.StatusForbidden, utils.CodePendingApproval, "Your membership is awaiting approval")
		return nil, false
	}
	if m.Status != models.StatusActive {
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "You are not a member of this group")
		return nil, false
	}
	return m, true
}

// requireManager additionally demands the creator or admin role in the group.
func requireManager(w http.ResponseWriter, groupID, userID uint) (*models.GroupMembership, bool) {
	m, ok := requireActiveMember(w, groupID, userID)
	if !ok {
		return nil, false
	}
	if !m.CanManage() {
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "Requires creator or admin role")
		return nil, false
	}
	return m, true
}

// recordActivity appends an audit row inside the caller's transaction.
func recordActivity(tx *gorm.DB, groupID, userID uint, activityType string, metadata map[string]interface{}) error {
	act := models.GroupActivity{
		GroupID:      groupID,
		UserID:       userID,
		ActivityType: activityType,
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		s := string(raw)
		act.Metadata = &s
	}
	return tx.Create(&act).Error
}

// pickNextCreator chooses the active membership that inherits the creator
// role on departure: earliest joined_at, then lowest user_id as the stable
// secondary key. Returns nil when no active membership remains.
func pickNextCreator(memberships []models.GroupMembership) *models.GroupMembership {
	var next *models.GroupMembership
	for i := range memberships {
		m := &memberships[i]
		if m.Status != models.StatusActive {
			continue
		}
		if next == nil {
			next = m
			continue
		}
		if m.JoinedAt.Before(next.JoinedAt) ||
			(m.JoinedAt.Equal(next.JoinedAt) && m.UserID < next.UserID) {
			next = m
		}
	}
	return next
}

// deleteGroupCascade removes the group and every dependent row. Must run
// inside a transaction.
func deleteGroupCascade(tx *gorm.DB, groupID uint) error {
	var goalIDs []uint
	if err := tx.Model(&models.Goal{}).Unscoped().Where("group_id = ?", groupID).Pluck("id", &goalIDs).Error; err != nil {
		return err
	}
	if len(goalIDs) > 0 {
		var entryIDs []uint
		if err := tx.Model(&models.ProgressEntry{}).Where("goal_id IN ?", goalIDs).Pluck("id", &entryIDs).Error; err != nil {
			return err
		}
		if len(entryIDs) > 0 {
			if err := tx.Where("entry_id IN ?", entryIDs).Delete(&models.ProgressReaction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", entryIDs).Delete(&models.ProgressEntry{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("group_id = ?", groupID).Delete(&models.Goal{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupInviteCode{}).Error; err != nil {
		return err
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupActivity{}).Error; err != nil {
		return err
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMembership{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Group{}, groupID).Error
}

// departure runs the departure & auto-promotion algorithm for one leaving
// membership. The caller must already be inside a transaction; the group's
// membership rows are locked for the duration so concurrent departures
// serialize. Returns true when the group itself was deleted.
func departure(tx *gorm.DB, groupID uint, departing *models.GroupMembership, actorID uint, activityType string) (bool, error) {
	var all []models.GroupMembership
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ?", groupID).Find(&all).Error; err != nil {
		return false, err
	}

	if err := tx.Delete(&models.GroupMembership{}, departing.ID).Error; err != nil {
		return false, err
	}

	remaining := make([]models.GroupMembership, 0, len(all))
	activeCount := 0
	for _, m := range all {
		if m.ID == departing.ID {
			continue
		}
		remaining = append(remaining, m)
		if m.Status == models.StatusActive {
			activeCount++
		}
	}

	if activeCount == 0 {
		return true, deleteGroupCascade(tx, groupID)
	}

	if err := recordActivity(tx, groupID, actorID, activityType, map[string]interface{}{
		"user_id": departing.UserID,
	}); err != nil {
		return false, err
	}

	if departing.Role == models.RoleCreator {
		next := pickNextCreator(remaining)
		if err := tx.Model(&models.GroupMembership{}).Where("id = ?", next.ID).
			Update("role", models.RoleCreator).Error; err != nil {
			return false, err
		}
		if err := tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("creator_user_id", next.UserID).Error; err != nil {
			return false, err
		}
		if err := recordActivity(tx, groupID, next.UserID, models.ActivityMemberPromoted, map[string]interface{}{
			"reason":   models.PromotionReasonAutoLastAdminLeft,
			"new_role": models.RoleCreator,
		}); err != nil {
			return false, err
		}
	}
	return false, nil
}
