package groups

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

type createGoalRequest struct {
	Name        string   `json:"name" validate:"required,nameok"`
	Cadence     string   `json:"cadence" validate:"required"`
	MetricType  string   `json:"metric_type"`
	TargetValue *float64 `json:"target_value"`
	Unit        *string  `json:"unit"`
	ActiveDays  *string  `json:"active_days"`
}

type createGroupRequest struct {
	Name               string              `json:"name" validate:"required,nameok"`
	Description        *string             `json:"description"`
	Visibility         string              `json:"visibility"`
	SpotLimit          int                 `json:"spot_limit"`
	IsChallenge        bool                `json:"is_challenge"`
	ChallengeStartDate *string             `json:"challenge_start_date"`
	ChallengeEndDate   *string             `json:"challenge_end_date"`
	Goals              []createGoalRequest `json:"goals"`
}

func buildGoal(groupID, userID uint, req createGoalRequest) (*models.Goal, string) {
	if !models.ValidCadence(req.Cadence) {
		return nil, "cadence must be daily, weekly, monthly or yearly"
	}
	metric := req.MetricType
	if metric == "" {
		metric = models.MetricBinary
	}
	if !models.ValidMetricType(metric) {
		return nil, "metric_type must be binary, numeric, duration or journal"
	}
	if req.ActiveDays != nil && req.Cadence != models.CadenceDaily {
		return nil, "active_days is only valid for daily cadence"
	}
	goal := &models.Goal{
		GroupID:     groupID,
		CreatedBy:   userID,
		Name:        req.Name,
		Cadence:     req.Cadence,
		MetricType:  metric,
		TargetValue: req.TargetValue,
		Unit:        req.Unit,
		ActiveDays:  req.ActiveDays,
	}
	return goal, ""
}

// CreateGroupHandler POST /groups - create a group with optional initial goals
func CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized")
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, err.Error())
		return
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}
	if req.Visibility != models.VisibilityPublic && req.Visibility != models.VisibilityPrivate {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "visibility must be public or private")
		return
	}
	if req.SpotLimit == 0 {
		req.SpotLimit = 20
	}
	if req.SpotLimit < 1 || req.SpotLimit > 500 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "spot_limit must be between 1 and 500")
		return
	}

	group := models.Group{
		CreatorUserID: uid,
		Name:          req.Name,
		Description:   req.Description,
		Visibility:    req.Visibility,
		SpotLimit:     req.SpotLimit,
		IsChallenge:   req.IsChallenge,
	}
	if req.IsChallenge {
		start, err1 := parseOptionalDate(req.ChallengeStartDate)
		end, err2 := parseOptionalDate(req.ChallengeEndDate)
		if err1 != nil || err2 != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "challenge dates must be YYYY-MM-DD")
			return
		}
		if start != nil && end != nil && end.Before(*start) {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeInvalidDateRange, "challenge_end_date is before challenge_start_date")
			return
		}
		group.ChallengeStartDate = start
		group.ChallengeEndDate = end
	}

	goals := make([]*models.Goal, 0, len(req.Goals))
	for _, g := range req.Goals {
		goal, msg := buildGoal(0, uid, g)
		if msg != "" {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, msg)
			return
		}
		goals = append(goals, goal)
	}

	code, err := generateInviteCode()
	if err != nil {
		log.Printf("[groups/create] invite code error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		membership := models.GroupMembership{
			GroupID:  group.ID,
			UserID:   uid,
			Role:     models.RoleCreator,
			Status:   models.StatusActive,
			JoinedAt: time.Now(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		invite := models.GroupInviteCode{GroupID: group.ID, Code: code, CreatedBy: uid}
		if err := tx.Create(&invite).Error; err != nil {
			return err
		}
		for _, goal := range goals {
			goal.GroupID = group.ID
			if err := tx.Create(goal).Error; err != nil {
				return err
			}
		}
		return recordActivity(tx, group.ID, uid, models.ActivityGroupCreated, nil)
	})
	if err != nil {
		log.Printf("[groups/create] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Group created",
		Data: map[string]interface{}{
			"group":       groupPayload(&group, 1),
			"invite_code": code,
			"goals":       goals,
		},
	})
}

// GetGroupHandler GET /groups/{id} - group detail with heat summary
func GetGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	membership, merr := findMembership(database.DB, groupID, uid)
	if merr != nil && !errors.Is(merr, gorm.ErrRecordNotFound) {
		utils.WriteInternalError(w)
		return
	}
	if group.Visibility == models.VisibilityPrivate && (membership == nil || membership.Status != models.StatusActive) {
		if membership != nil && membership.Status == models.StatusPending {
			utils.WriteError(w, http.StatusForbidden, utils.CodePendingApproval, "Your membership is awaiting approval")
			return
		}
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "You are not a member of this group")
		return
	}

	var memberCount int64
	if err := database.DB.Model(&models.GroupMembership{}).
		Where("group_id = ? AND status = ?", groupID, models.StatusActive).
		Count(&memberCount).Error; err != nil {
		utils.WriteInternalError(w)
		return
	}

	data := map[string]interface{}{
		"group": groupPayload(group, memberCount),
	}
	if membership != nil {
		data["my_role"] = membership.Role
		data["my_status"] = membership.Status
	}

	// Heat is a members-only signal and cold groups stay unlabeled.
	if membership != nil && membership.Status == models.StatusActive {
		if heat, err := groupHeat(group); err != nil {
			log.Printf("[groups/get] heat error: %v", err)
		} else if heat.Tier > 0 {
			data["heat"] = heat
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: data})
}

func groupPayload(g *models.Group, memberCount int64) map[string]interface{} {
	payload := map[string]interface{}{
		"id":              g.ID,
		"creator_user_id": g.CreatorUserID,
		"name":            g.Name,
		"description":     g.Description,
		"visibility":      g.Visibility,
		"spot_limit":      g.SpotLimit,
		"is_challenge":    g.IsChallenge,
		"member_count":    memberCount,
		"created_at":      g.CreatedAt.Format(time.RFC3339),
	}
	if g.IsChallenge {
		payload["challenge_status"] = g.ChallengeStatus(time.Now())
		if g.ChallengeStartDate != nil {
			payload["challenge_start_date"] = g.ChallengeStartDate.Format(utils.DateLayout)
		}
		if g.ChallengeEndDate != nil {
			payload["challenge_end_date"] = g.ChallengeEndDate.Format(utils.DateLayout)
		}
	}
	return payload
}

type updateGroupRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Visibility      *string `json:"visibility"`
	SpotLimit       *int    `json:"spot_limit"`
	CancelChallenge *bool   `json:"cancel_challenge"`
}

// UpdateGroupHandler PATCH /groups/{id} - creator/admin only
func UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := requireManager(w, groupID, uid); !ok {
		return
	}

	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "name cannot be empty")
			return
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Visibility != nil {
		if *req.Visibility != models.VisibilityPublic && *req.Visibility != models.VisibilityPrivate {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "visibility must be public or private")
			return
		}
		updates["visibility"] = *req.Visibility
	}
	if req.SpotLimit != nil {
		var activeCount int64
		if err := database.DB.Model(&models.GroupMembership{}).
			Where("group_id = ? AND status = ?", groupID, models.StatusActive).
			Count(&activeCount).Error; err != nil {
			utils.WriteInternalError(w)
			return
		}
		if int64(*req.SpotLimit) < activeCount {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "spot_limit cannot be below the current member count")
			return
		}
		updates["spot_limit"] = *req.SpotLimit
	}
	if req.CancelChallenge != nil && *req.CancelChallenge {
		if !group.IsChallenge {
			utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "group is not a challenge")
			return
		}
		updates["challenge_cancelled"] = true
	}
	if len(updates) == 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "No updatable fields provided")
		return
	}

	if err := database.DB.Model(group).Updates(updates).Error; err != nil {
		log.Printf("[groups/update] DB error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Group updated"})
}

// DeleteGroupHandler DELETE /groups/{id} - creator only, cascades everything
func DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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
	membership, ok := requireActiveMember(w, groupID, uid)
	if !ok {
		return
	}
	if membership.Role != models.RoleCreator {
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "Only the group creator can delete the group")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return deleteGroupCascade(tx, groupID)
	})
	if err != nil {
		log.Printf("[groups/delete] transaction error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Group deleted"})
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
