package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key", 5, time.Minute) {
		t.Error("sixth request should be denied")
	}
	// Other keys are unaffected.
	if !rl.Allow("other", 5, time.Minute) {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("key", 1, 10*time.Millisecond) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key", 1, 10*time.Millisecond) {
		t.Fatal("second request should be denied")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("key", 1, 10*time.Millisecond) {
		t.Error("request after window should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/admin/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/admin/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := RealIP(req); got != "10.0.0.1" {
		t.Errorf("RealIP = %q, want %q", got, "10.0.0.1")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.5" {
		t.Errorf("RealIP = %q, want first forwarded address", got)
	}
}
