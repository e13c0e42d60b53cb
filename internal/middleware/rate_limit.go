package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MumuCarrot/vote-BE/internal/api"
)

// RateLimiter is a sliding-window in-memory rate limiter
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit requests per
// window per key, with a background sweep of stale keys.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.sweep()
	return rl
}

// Allow records a request for key and reports whether it fits the limit
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := time.Now().Add(-rl.window)
	live := prune(rl.requests[key], windowStart)

	if len(live) >= rl.limit {
		rl.requests[key] = live
		return false
	}

	rl.requests[key] = append(live, time.Now())
	return true
}

// Remaining returns how many requests key has left in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	live := prune(rl.requests[key], time.Now().Add(-rl.window))
	if remaining := rl.limit - len(live); remaining > 0 {
		return remaining
	}
	return 0
}

// Reset returns when the oldest recorded request leaves the window
func (rl *RateLimiter) Reset(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	live := prune(rl.requests[key], time.Now().Add(-rl.window))
	if len(live) == 0 {
		return time.Now()
	}
	return live[0].Add(rl.window)
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	var live []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	return live
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for key, times := range rl.requests {
			live := prune(times, cutoff)
			if len(live) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = live
			}
		}
		rl.mu.Unlock()
	}
}

// LimitByIP returns middleware that rate limits by client IP, intended
// for the credential endpoints.
func LimitByIP(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := api.ClientIP(r)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.Reset(key).Unix(), 10))

			if !rl.Allow(key) {
				retryAfter := rl.Reset(key).Unix() - time.Now().Unix()
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				api.WriteError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS",
					"Rate limit exceeded. Please try again later.",
					map[string][]string{"retry_after": {strconv.FormatInt(retryAfter, 10)}})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
			next.ServeHTTP(w, r)
		})
	}
}
