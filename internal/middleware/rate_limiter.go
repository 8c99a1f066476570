package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/gin-gonic/gin"
)

// RateLimiter implements a simple in-memory fixed-window limiter keyed
// by authenticated user and by client IP.
type RateLimiter struct {
	userLimits map[uint]*windowCounter
	ipLimits   map[string]*windowCounter
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
}

type windowCounter struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup
// goroutine.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[uint]*windowCounter),
		ipLimits:        make(map[string]*windowCounter),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
	}

	go rl.cleanup()

	return rl
}

// AllowUser checks and consumes one request for the user's window.
func (rl *RateLimiter) AllowUser(userID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	limit, exists := rl.userLimits[userID]
	if !exists || now.After(limit.resetTime) {
		rl.userLimits[userID] = &windowCounter{requests: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if limit.requests >= rl.userMaxRequests {
		return false
	}
	limit.requests++
	return true
}

// AllowIP checks and consumes one request for the IP's window.
func (rl *RateLimiter) AllowIP(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	limit, exists := rl.ipLimits[ip]
	if !exists || now.After(limit.resetTime) {
		rl.ipLimits[ip] = &windowCounter{requests: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if limit.requests >= rl.ipMaxRequests {
		return false
	}
	limit.requests++
	return true
}

// Middleware enforces the per-IP limit, plus the per-user limit when the
// request carries an authenticated identity.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.AllowIP(c.ClientIP()) {
			abortWithCode(c, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "too many requests")
			return
		}
		if userID := UserID(c); userID != 0 && !rl.AllowUser(userID) {
			abortWithCode(c, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "too many requests")
			return
		}
		c.Next()
	}
}

// Reset clears all rate limits (useful for testing).
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[uint]*windowCounter)
	rl.ipLimits = make(map[string]*windowCounter)
}

// cleanup removes expired entries.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for userID, limit := range rl.userLimits {
			if now.After(limit.resetTime) {
				delete(rl.userLimits, userID)
			}
		}
		for ip, limit := range rl.ipLimits {
			if now.After(limit.resetTime) {
				delete(rl.ipLimits, ip)
			}
		}
		rl.mu.Unlock()
	}
}
