package utils

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes surfaced in the error envelope.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInvalidCursor        = "INVALID_CURSOR"
	CodeInvalidDateRange     = "INVALID_DATE_RANGE"
	CodeNotFound             = "NOT_FOUND"
	CodeForbidden            = "FORBIDDEN"
	CodePendingApproval      = "PENDING_APPROVAL"
	CodeTargetNotAMember     = "TARGET_NOT_A_MEMBER"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeCannotChangeOwnRole  = "CANNOT_CHANGE_OWN_ROLE"
	CodeCannotDemoteCreator  = "CANNOT_DEMOTE_CREATOR"
	CodeCannotRemoveCreator  = "CANNOT_REMOVE_CREATOR"
	CodeGroupLimitReached    = "GROUP_LIMIT_REACHED"
	CodeAlreadyMember        = "ALREADY_MEMBER"
	CodeInvalidInviteCode    = "INVALID_INVITE_CODE"
	CodeDuplicatePeriod      = "DUPLICATE_PERIOD"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternalError        = "INTERNAL_ERROR"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError emits the standard error envelope {"error":{"code","message"}}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// WriteInternalError logs nothing itself; callers log the cause. The client
// only ever sees the generic message.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, "An internal error occurred")
}

// GetStringValue returns the value of a nullable string pointer or empty string if nil
func GetStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
