package routes

import (
	"net/http"
	"time"

	"github.com/shannonbay/Pursue-sub004/controllers/groups"
	"github.com/shannonbay/Pursue-sub004/middleware"

	"github.com/gorilla/mux"
)

// SetGroupRoutes registers the group, goal and progress routes. Everything
// here requires a bearer token; per-group authorization happens in the
// handlers.
func SetGroupRoutes(api *mux.Router) {
	// Rate limiter per user: 240 reads, 60 writes per minute. The members
	// list drives the home screen, so reads run generous.
	groupLimiter := middleware.NewUserRateLimiter(240, 60, time.Minute)

	protected := func(h http.HandlerFunc) http.Handler {
		return groupLimiter.Middleware(middleware.AuthMiddleware(h))
	}

	// Group lifecycle
	api.Handle("/groups", protected(groups.CreateGroupHandler)).Methods(http.MethodPost)
	api.Handle("/groups/join", protected(groups.JoinGroupHandler)).Methods(http.MethodPost)
	api.Handle("/groups/{id:[0-9]+}", protected(groups.GetGroupHandler)).Methods(http.MethodGet)
	api.Handle("/groups/{id:[0-9]+}", protected(groups.UpdateGroupHandler)).Methods(http.MethodPatch)
	api.Handle("/groups/{id:[0-9]+}", protected(groups.DeleteGroupHandler)).Methods(http.MethodDelete)
	api.Handle("/groups/{id:[0-9]+}/invite-code", protected(groups.RotateInviteCodeHandler)).Methods(http.MethodPost)
	api.Handle("/groups/{id:[0-9]+}/heat", protected(groups.GetGroupHeatHandler)).Methods(http.MethodGet)
	api.Handle("/groups/{id:[0-9]+}/activity", protected(groups.ListActivityHandler)).Methods(http.MethodGet)

	// Membership
	api.Handle("/groups/{id:[0-9]+}/members", protected(groups.ListMembersHandler)).Methods(http.MethodGet)
	api.Handle("/groups/{id:[0-9]+}/members/pending", protected(groups.ListPendingMembersHandler)).Methods(http.MethodGet)
	api.Handle("/groups/{id:[0-9]+}/members/me", protected(groups.LeaveGroupHandler)).Methods(http.MethodDelete)
	api.Handle("/groups/{id:[0-9]+}/members/{userId:[0-9]+}/approve", protected(groups.ApproveMemberHandler)).Methods(http.MethodPost)
	api.Handle("/groups/{id:[0-9]+}/members/{userId:[0-9]+}/decline", protected(groups.DeclineMemberHandler)).Methods(http.MethodPost)
	api.Handle("/groups/{id:[0-9]+}/members/{userId:[0-9]+}", protected(groups.UpdateMemberRoleHandler)).Methods(http.MethodPatch)
	api.Handle("/groups/{id:[0-9]+}/members/{userId:[0-9]+}", protected(groups.RemoveMemberHandler)).Methods(http.MethodDelete)
	api.Handle("/groups/{id:[0-9]+}/members/{userId:[0-9]+}/progress", protected(groups.GetMemberProgressHandler)).Methods(http.MethodGet)

	// Goals
	api.Handle("/groups/{id:[0-9]+}/goals", protected(groups.CreateGoalHandler)).Methods(http.MethodPost)
	api.Handle("/groups/{id:[0-9]+}/goals", protected(groups.ListGoalsHandler)).Methods(http.MethodGet)
	api.Handle("/goals/{id:[0-9]+}", protected(groups.UpdateGoalHandler)).Methods(http.MethodPatch)
	api.Handle("/goals/{id:[0-9]+}", protected(groups.DeleteGoalHandler)).Methods(http.MethodDelete)

	// Progress
	api.Handle("/goals/{id:[0-9]+}/progress", protected(groups.LogProgressHandler)).Methods(http.MethodPost)
	api.Handle("/progress/{id:[0-9]+}", protected(groups.DeleteProgressEntryHandler)).Methods(http.MethodDelete)
	api.Handle("/progress/{id:[0-9]+}/photo", protected(groups.UploadProgressPhotoHandler)).Methods(http.MethodPost)
	api.Handle("/progress/{id:[0-9]+}/reactions", protected(groups.ToggleReactionHandler)).Methods(http.MethodPut)
}
