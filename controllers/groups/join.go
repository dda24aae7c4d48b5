package groups

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var reInviteCode = regexp.MustCompile(`^[A-Z2-9]{8}$`)

func generateInviteCode() (string, error) {
	// ambiguous characters (0/O, 1/I) are excluded
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const length = 8
	for attempt := 0; attempt < 20; attempt++ {
		b := make([]byte, length)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		var code strings.Builder
		for _, v := range b {
			code.WriteByte(chars[int(v)%len(chars)])
		}
		c := code.String()
		var count int64
		if database.DB.Model(&models.GroupInviteCode{}).Where("code = ?", c).Count(&count).Error == nil && count == 0 {
			return c, nil
		}
	}
	return "", fmt.Errorf("could not generate unique invite code")
}

// RotateInviteCodeHandler POST /groups/{id}/invite-code - replace the code
func RotateInviteCodeHandler(w http.ResponseWriter, r *http.Request) {
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

	code, err := generateInviteCode()
	if err != nil {
		log.Printf("[groups/invite-code] generate error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupInviteCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupInviteCode{GroupID: groupID, Code: code, CreatedBy: uid}).Error
	})
	if err != nil {
		log.Printf("[groups/invite-code] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Invite code rotated",
		Data:    map[string]interface{}{"invite_code": code},
	})
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

// JoinGroupHandler POST /groups/join - join via invite code. Public groups
// activate immediately; private groups create a pending request.
func JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}

	var req joinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if !reInviteCode.MatchString(code) {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeInvalidInviteCode, "Invite code format is invalid")
		return
	}

	var invite models.GroupInviteCode
	if err := database.DB.Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.CodeInvalidInviteCode, "Invite code not found")
			return
		}
		utils.WriteInternalError(w)
		return
	}

	var group models.Group
	if err := database.DB.First(&group, invite.GroupID).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	var membership models.GroupMembership
	status := models.StatusPending
	if group.Visibility == models.VisibilityPublic {
		status = models.StatusActive
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the membership set so the spot check and insert are atomic.
		var existing []models.GroupMembership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ?", group.ID).Find(&existing).Error; err != nil {
			return err
		}
		activeCount := 0
		for _, m := range existing {
			if m.UserID == uid {
				if m.Status == models.StatusDeclined {
					// A declined user may ask again.
					membership = m
					continue
				}
				return errAlreadyMember
			}
			if m.Status == models.StatusActive {
				activeCount++
			}
		}
		if status == models.StatusActive && activeCount >= group.SpotLimit {
			return errGroupFull
		}

		if membership.ID != 0 {
			membership.Status = status
			membership.JoinedAt = time.Now()
			if err := tx.Save(&membership).Error; err != nil {
				return err
			}
		} else {
			membership = models.GroupMembership{
				GroupID:  group.ID,
				UserID:   uid,
				Role:     models.RoleMember,
				Status:   status,
				JoinedAt: time.Now(),
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}

		activityType := models.ActivityJoinRequested
		if status == models.StatusActive {
			activityType = models.ActivityMemberJoined
		}
		return recordActivity(tx, group.ID, uid, activityType, nil)
	})
	switch {
	case errors.Is(err, errAlreadyMember):
		utils.WriteError(w, http.StatusConflict, utils.CodeAlreadyMember, "You already belong to this group")
		return
	case errors.Is(err, errGroupFull):
		utils.WriteError(w, http.StatusConflict, utils.CodeGroupLimitReached, "The group has no open spots")
		return
	case err != nil:
		log.Printf("[groups/join] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	msg := "Join request submitted"
	if status == models.StatusActive {
		msg = "Joined group"
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: msg,
		Data: map[string]interface{}{
			"group_id": group.ID,
			"status":   membership.Status,
			"role":     membership.Role,
		},
	})
}

var (
	errAlreadyMember = errors.New("already a member")
	errGroupFull     = errors.New("group is full")
)
