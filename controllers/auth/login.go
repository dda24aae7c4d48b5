package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/middleware"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler POST /auth/login. Repeated failures trip a per-account lockout
// with escalating cooldowns.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, err.Error())
		return
	}

	var user models.User
	err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same response as a wrong password; no account enumeration
			utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid email or password")
			return
		}
		utils.WriteInternalError(w)
		return
	}

	if locked, remaining := middleware.IsAccountLocked(user.ID); locked {
		utils.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED",
			fmt.Sprintf("Too many failed attempts. Try again in %d seconds", int(remaining.Seconds())+1))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		middleware.RecordFailedLogin(user.ID)
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid email or password")
		return
	}
	middleware.ResetFailedLogin(user.ID)

	access, err := utils.GenerateAccessToken(user.ID)
	if err != nil {
		log.Printf("[auth/login] token error: %v", err)
		utils.WriteInternalError(w)
		return
	}
	refresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		log.Printf("[auth/login] refresh token error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"user":          user,
			"access_token":  access,
			"refresh_token": refresh,
			"expires_at":    time.Now().Add(15 * time.Minute).Format(time.RFC3339),
		},
	})
}
