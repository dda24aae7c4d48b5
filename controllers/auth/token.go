package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shannonbay/Pursue-sub004/database"
	"github.com/shannonbay/Pursue-sub004/models"
	"github.com/shannonbay/Pursue-sub004/utils"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler POST /auth/refresh - rotate the refresh token and mint a new
// access token. The old refresh token is revoked on use.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "Malformed request body")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.CodeValidationError, "refresh_token is required")
		return
	}

	rt, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Refresh token is invalid or expired")
		return
	}

	if err := database.DB.Model(&models.RefreshToken{}).
		Where("id = ?", rt.ID).Update("revoked", true).Error; err != nil {
		log.Printf("[auth/refresh] revoke error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	access, err := utils.GenerateAccessToken(rt.UserID)
	if err != nil {
		log.Printf("[auth/refresh] token error: %v", err)
		utils.WriteInternalError(w)
		return
	}
	refresh, err := utils.GenerateRefreshToken(rt.UserID)
	if err != nil {
		log.Printf("[auth/refresh] refresh token error: %v", err)
		utils.WriteInternalError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"access_token":  access,
			"refresh_token": refresh,
			"expires_at":    time.Now().Add(15 * time.Minute).Format(time.RFC3339),
		},
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler POST /auth/logout - revoke the presented refresh token and
// blacklist the access token's jti for the remainder of its life.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if err := database.DB.Model(&models.RefreshToken{}).
			Where("id = ?", req.RefreshToken).Update("revoked", true).Error; err != nil {
			log.Printf("[auth/logout] refresh revoke error: %v", err)
		}
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		if claims, err := utils.ValidateAccessToken(strings.TrimPrefix(authz, "Bearer ")); err == nil {
			jti, _ := claims["jti"].(string)
			ttl := 15 * time.Minute
			if exp, ok := claims["exp"].(float64); ok {
				if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
					ttl = until
				}
			}
			if jti != "" {
				if err := utils.RevokeJTI(jti, ttl); err != nil {
					log.Printf("[auth/logout] jti revoke error: %v", err)
				}
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
