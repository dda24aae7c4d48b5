package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shannonbay/Pursue-sub004/utils"
)

// AuthMiddleware verifies the bearer token and injects the authenticated
// user id into the request context. Token issuance lives in controllers/auth;
// everything past this middleware only sees the context identity.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Missing bearer token")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Session expired, please log in again")
				return
			}
			utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid token")
			return
		}

		var userID uint
		if rawID, ok := claims["id"]; ok {
			switch v := rawID.(type) {
			case float64:
				userID = uint(v)
			case int:
				userID = uint(v)
			case string:
				var n uint
				_, _ = fmt.Sscanf(v, "%d", &n)
				userID = n
			}
		}
		if userID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
