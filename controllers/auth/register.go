package auth

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

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,nameok"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwdmin"`
	Timezone string `json:"timezone" validate:"tz"`
}

// RegisterHandler POST /auth/register
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, err.Error())
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[auth/register] bcrypt error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hash),
		Timezone: req.Timezone,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteError(w, http.StatusConflict, utils.CodeValidationError, "Email is already registered")
			return
		}
		log.Printf("[auth/register] DB error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	access, err := utils.GenerateAccessToken(user.ID)
	if err != nil {
		log.Printf("[auth/register] token error: %v", err)
		utils.WriteInternalError(w)
		return
	}
	refresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		log.Printf("[auth/register] refresh token error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Account created",
		Data: map[string]interface{}{
			"user":          user,
			"access_token":  access,
			"refresh_token": refresh,
			"expires_at":    time.Now().Add(15 * time.Minute).Format(time.RFC3339),
		},
	})
}
