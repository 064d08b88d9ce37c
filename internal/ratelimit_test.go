package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestRateLimiterAllow tests the token bucket refill behavior for a single
// client key.
func TestRateLimiterAllow(t *testing.T) {
	limiter := &rateLimiter{
		store: make(map[string]*rateEntry),
		rps:   1,
		burst: 1,
		ttl:   time.Minute,
	}

	if !limiter.allow("client") {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.allow("client") {
		t.Fatalf("expected second request to be rate limited")
	}

	time.Sleep(1100 * time.Millisecond)

	if !limiter.allow("client") {
		t.Fatalf("expected request after refill to be allowed")
	}
}

// TestRateLimiterPrune tests that idle entries are dropped after the ttl.
func TestRateLimiterPrune(t *testing.T) {
	limiter := &rateLimiter{
		store: make(map[string]*rateEntry),
		rps:   1,
		burst: 1,
		ttl:   10 * time.Millisecond,
	}

	limiter.allow("stale")
	time.Sleep(20 * time.Millisecond)
	limiter.allow("fresh")

	if _, ok := limiter.store["stale"]; ok {
		t.Fatalf("expected stale entry to be pruned")
	}
	if _, ok := limiter.store["fresh"]; !ok {
		t.Fatalf("expected fresh entry to remain")
	}
}

// TestRateLimitHandler tests the middleware end to end, including the
// disabled case.
func TestRateLimitHandler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	limited := NewRateLimitHandler(next, 1, 1, time.Minute)
	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/push", nil)
		req.RemoteAddr = "203.0.113.9:4312"
		limited.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}

	disabled := NewRateLimitHandler(next, 0, 0, 0)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/push", nil)
		disabled.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected limiting disabled, got %d", rec.Code)
		}
	}
}
