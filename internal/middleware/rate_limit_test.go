package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.1") {
			t.Fatalf("request %d denied below the limit", i+1)
		}
	}
	if rl.Allow("203.0.113.1") {
		t.Error("request above the limit was allowed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("203.0.113.1") {
		t.Fatal("first key denied its first request")
	}
	if !rl.Allow("203.0.113.2") {
		t.Error("second key throttled by the first key's usage")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)

	if !rl.Allow("k") {
		t.Fatal("first request denied")
	}
	if rl.Allow("k") {
		t.Fatal("second request allowed inside the window")
	}

	time.Sleep(40 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("request denied after the window passed")
	}
}

func TestRemainingCountsDown(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if got := rl.Remaining("k"); got != 2 {
		t.Errorf("remaining = %d, want 2", got)
	}
	rl.Allow("k")
	if got := rl.Remaining("k"); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	rl.Allow("k")
	rl.Allow("k")
	if got := rl.Remaining("k"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestLimitByIPReturns429WithHeaders(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := LimitByIP(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if code := errorCode(t, rec); code != "TOO_MANY_REQUESTS" {
		t.Errorf("error code = %q, want TOO_MANY_REQUESTS", code)
	}
}

func TestLimitByIPSeparatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := LimitByIP(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	first.Header.Set("X-Real-IP", "203.0.113.1")
	second := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	second.Header.Set("X-Real-IP", "203.0.113.2")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second request status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client throttled by the first client's usage: status %d", rec.Code)
	}
}
