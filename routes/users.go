package routes

import (
	"net/http"
	"time"

	"github.com/shannonbay/Pursue-sub004/controllers/auth"
	"github.com/shannonbay/Pursue-sub004/controllers/users"
	"github.com/shannonbay/Pursue-sub004/middleware"

	"github.com/gorilla/mux"
)

// SetUserRoutes registers auth and profile routes on the given subrouter.
func SetUserRoutes(api *mux.Router) {
	// Rate limiter for auth endpoints: 30 per IP per 5 minutes
	authLimiter := middleware.NewIPRateLimiter(30, 5*time.Minute)
	// Rate limiter per user: 120 reads, 60 writes per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, time.Minute)

	api.Handle("/auth/register", authLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", authLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", authLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)

	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.MeHandler)))).Methods(http.MethodGet)
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdateMeHandler)))).Methods(http.MethodPatch)
	api.Handle("/users/me/groups", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ListMyGroupsHandler)))).Methods(http.MethodGet)
}
