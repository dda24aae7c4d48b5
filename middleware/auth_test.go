package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shannonbay/Pursue-sub004/utils"
)

func authOKHandler(t *testing.T, wantUserID uint) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetUserID(r)
		if !ok || uid != wantUserID {
			t.Fatalf("expected user id %d in context, got %d (ok=%v)", wantUserID, uid, ok)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://example.local/v1/groups/1", nil)

	AuthMiddleware(authOKHandler(t, 0)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://example.local/v1/groups/1", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	AuthMiddleware(authOKHandler(t, 0)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ValidTokenInjectsUserID(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ISS", "")

	token, err := utils.GenerateAccessToken(77)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://example.local/v1/groups/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	AuthMiddleware(authOKHandler(t, 77)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_WrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := utils.GenerateAccessToken(77)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	t.Setenv("JWT_SECRET", "different-secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://example.local/v1/groups/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	AuthMiddleware(authOKHandler(t, 0)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on wrong secret, got %d", rec.Code)
	}
}
