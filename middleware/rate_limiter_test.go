package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestClientIPGeneric_DirectRemote(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	ip := clientIPGeneric(req, nil)
	if ip != "203.0.113.5" {
		t.Fatalf("expected direct remote IP, got %s", ip)
	}
}

func TestClientIPGeneric_TrustedProxyXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.10:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.10")
	// trustedCIDR contains the remote IP
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "203.0.113.7" {
		t.Fatalf("expected X-Forwarded-For first value, got %s", ip)
	}
}

func TestClientIPGeneric_UntrustedProxyIgnoresXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.11:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.8, 198.51.100.11")
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "198.51.100.11" {
		t.Fatalf("expected remote IP when proxy untrusted, got %s", ip)
	}
}

func TestClientIPGeneric_TrustedCIDRRange(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "10.0.0.7:443"
	req.Header.Set("X-Real-IP", "203.0.113.9")
	ip := clientIPGeneric(req, []string{"10.0.0.0/8"})
	if ip != "203.0.113.9" {
		t.Fatalf("expected X-Real-IP from trusted CIDR, got %s", ip)
	}
}

func TestRecord_CountsWithinWindow(t *testing.T) {
	var mu sync.Mutex
	state := make(map[string]timestamps)
	for i := 1; i <= 3; i++ {
		count, _ := record(&mu, state, "k", time.Minute)
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
	}
	// independent key keeps its own counter
	if count, _ := record(&mu, state, "other", time.Minute); count != 1 {
		t.Fatalf("expected fresh counter, got %d", count)
	}
}

func TestSweep_DropsExpiredKeys(t *testing.T) {
	state := map[string]timestamps{
		"stale": {nowUnix() - int64(2*time.Minute)},
		"fresh": {nowUnix()},
	}
	sweep(state, time.Minute)
	if _, ok := state["stale"]; ok {
		t.Fatal("expected stale key to be swept")
	}
	if _, ok := state["fresh"]; !ok {
		t.Fatal("expected fresh key to survive")
	}
}

func TestIPRateLimiter_BlocksOverLimit(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "http://example.local/", nil)
		req.RemoteAddr = "203.0.113.20:1000"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "203.0.113.20:1000"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

func TestLockoutDuration_Escalates(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{3, 0},
		{4, time.Minute},
		{5, 5 * time.Minute},
		{6, 15 * time.Minute},
		{10, 30 * time.Minute},
	}
	for _, c := range cases {
		if got := lockoutDuration(c.failures); got != c.want {
			t.Fatalf("failures=%d: expected %v, got %v", c.failures, c.want, got)
		}
	}
}
