package groups

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"gorm.io/gorm"
)

type logProgressRequest struct {
	Value *float64 `json:"value"`
	Note  *string  `json:"note"`
	Date  *string  `json:"date"`
}

// LogProgressHandler POST /goals/{id}/progress - write one entry for the
// period containing the given date (default: today in the caller's timezone).
// A second insert for the same period fails on the unique constraint and
// surfaces as DUPLICATE_PERIOD; editing is delete-then-reinsert.
func LogProgressHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := requireActiveMember(w, goal.GroupID, uid); !ok {
		return
	}

	var req logProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}

	value := 1.0
	if req.Value != nil {
		value = *req.Value
	}
	if value <= 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "value must be positive")
		return
	}
	if goal.MetricType == models.MetricBinary {
		value = 1.0
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	// An explicit date is already a calendar date in the caller's timezone,
	// so the period key derives from it directly.
	var periodStart time.Time
	if req.Date != nil && *req.Date != "" {
		userDate, err := utils.ParseDate(*req.Date)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "date must be YYYY-MM-DD")
			return
		}
		periodStart = utils.PeriodStart(goal.Cadence, userDate, time.UTC)
	} else {
		periodStart = utils.PeriodStart(goal.Cadence, time.Now(), user.Location())
	}

	entry := models.ProgressEntry{
		GoalID:      goal.ID,
		UserID:      uid,
		PeriodStart: periodStart,
		Value:       value,
		Note:        req.Note,
		LoggedAt:    time.Now(),
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return recordActivity(tx, goal.GroupID, uid, models.ActivityProgressLogged, map[string]interface{}{
			"goal_id":  goal.ID,
			"entry_id": entry.ID,
		})
	})
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		utils.WriteError(w, http.StatusConflict, utils.CodeDuplicatePeriod, "Progress is already logged for this period")
		return
	case err != nil:
		log.Printf("[progress/log] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Progress logged",
		Data:    map[string]interface{}{"entry": entry},
	})
}

// loadEntry fetches an entry or writes NOT_FOUND.
func loadEntry(w http.ResponseWriter, entryID uint) (*models.ProgressEntry, bool) {
	var entry models.ProgressEntry
	if err := database.DB.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Progress entry not found")
			return nil, false
		}
		utils.WriteInternalError(w)
		return nil, false
	}
	return &entry, true
}

// entryGroupID resolves the owning group even when the goal was soft-deleted.
func entryGroupID(entry *models.ProgressEntry) (uint, error) {
	var goal models.Goal
	if err := database.DB.Unscoped().First(&goal, entry.GoalID).Error; err != nil {
		return 0, err
	}
	return goal.GroupID, nil
}

// DeleteProgressEntryHandler DELETE /progress/{id} - the entry's owner or a
// group manager. Also the first half of the edit-by-reinsert pattern.
func DeleteProgressEntryHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid entry id")
		return
	}
	entry, ok := loadEntry(w, entryID)
	if !ok {
		return
	}
	groupID, err := entryGroupID(entry)
	if err != nil {
		utils.WriteInternalError(w)
		return
	}

	if entry.UserID != uid {
		m, err := findMembership(database.DB, groupID, uid)
		if err != nil || !m.CanManage() {
			utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "Only the entry owner or a group manager can delete this entry")
			return
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.ProgressReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProgressEntry{}, entry.ID).Error
	})
	if err != nil {
		log.Printf("[progress/delete] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	if entry.PhotoKey != nil {
		if err := utils.DeleteFromS3(*entry.PhotoKey); err != nil {
			log.Printf("[progress/delete] S3 cleanup failed for entry %d: %v", entry.ID, err)
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Progress entry deleted"})
}

// UploadProgressPhotoHandler POST /progress/{id}/photo - multipart upload of
// an attached photo, owner only. The object key is stored; clients always go
// through presigned URLs.
func UploadProgressPhotoHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid entry id")
		return
	}
	entry, ok := loadEntry(w, entryID)
	if !ok {
		return
	}
	if entry.UserID != uid {
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "Only the entry owner can attach a photo")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "photo file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "photo must be jpg, png or webp")
		return
	}

	key := fmt.Sprintf("progress/%d/%d%s", entry.ID, time.Now().UnixNano(), ext)
	if err := utils.UploadToS3(key, file); err != nil {
		log.Printf("[progress/photo] upload error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	oldKey := entry.PhotoKey
	if err := database.DB.Model(entry).Update("photo_key", key).Error; err != nil {
		log.Printf("[progress/photo] DB error: %v", err)
		utils.WriteInternalError(w)
		return
	}
	if oldKey != nil {
		if err := utils.DeleteFromS3(*oldKey); err != nil {
			log.Printf("[progress/photo] old photo cleanup failed: %v", err)
		}
	}

	url, err := utils.GenerateSignedURL(key, photoURLTTL)
	if err != nil {
		log.Printf("[progress/photo] presign error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Photo attached",
		Data:    map[string]interface{}{"photo_url": url},
	})
}

type toggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

// ToggleReactionHandler PUT /progress/{id}/reactions - add the caller's
// reaction if absent, remove it if present.
func ToggleReactionHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Invalid entry id")
		return
	}
	entry, ok := loadEntry(w, entryID)
	if !ok {
		return
	}
	groupID, err := entryGroupID(entry)
	if err != nil {
		utils.WriteInternalError(w)
		return
	}
	if _, ok := requireActiveMember(w, groupID, uid); !ok {
		return
	}

	var req toggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" || len(emoji) > 16 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "emoji is required")
		return
	}

	var reacted bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.ProgressReaction
		err := tx.Where("entry_id = ? AND user_id = ? AND emoji = ?", entry.ID, uid, emoji).
			First(&existing).Error
		if err == nil {
			return tx.Delete(&models.ProgressReaction{}, existing.ID).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		reacted = true
		return tx.Create(&models.ProgressReaction{EntryID: entry.ID, UserID: uid, Emoji: emoji}).Error
	})
	if err != nil {
		log.Printf("[progress/react] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"reacted": reacted, "emoji": emoji},
	})
}
