// Package api holds HTTP middleware shared by the calendar sync routes.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientEntry pairs a limiter with a last-seen timestamp for eviction.
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SyncRateLimiter throttles store-heavy sync requests per client IP. A full
// sync walks the whole schedule and commits a batch against the external
// store, so callers get a small budget rather than a free retry loop.
type SyncRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	rate    rate.Limit
	burst   int
}

// NewSyncRateLimiter allows r events per second with the given burst per
// client. For "5 per minute" pass rate.Every(12*time.Second) with burst 5.
func NewSyncRateLimiter(r rate.Limit, burst int) *SyncRateLimiter {
	rl := &SyncRateLimiter{
		clients: make(map[string]*clientEntry),
		rate:    r,
		burst:   burst,
	}
	go rl.evictStale()
	return rl
}

func (rl *SyncRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[ip]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// evictStale drops limiters for clients not seen in the last 10 minutes.
func (rl *SyncRateLimiter) evictStale() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, entry := range rl.clients {
			if time.Since(entry.lastSeen) > 10*time.Minute {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware wraps next with per-client rate limiting, answering 429 when
// the budget is exhausted.
func (rl *SyncRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
