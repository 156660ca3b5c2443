package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window in-memory limiter. One instance guards the
// login/signup pair, another the whole authenticated surface, so a burst of
// failed logins cannot eat the API budget of a legitimate session.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	buckets map[string]*bucket
	sweepAt time.Time
}

type bucket struct {
	count    int
	resetsAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		sweepAt: time.Now().Add(window),
	}
}

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		now := time.Now()

		rl.mu.Lock()
		rl.sweepLocked(now)

		b, ok := rl.buckets[key]

		if !ok || now.After(b.resetsAt) {
			rl.buckets[key] = &bucket{count: 1, resetsAt: now.Add(rl.window)}
			rl.mu.Unlock()
			c.Next()
			return
		}

		if b.count >= rl.limit {
			retryAfter := int(time.Until(b.resetsAt).Seconds())
			rl.mu.Unlock()

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		b.count++
		rl.mu.Unlock()
		c.Next()
	}
}

// sweepLocked drops expired buckets at most once per window so the map does
// not grow with every client the process ever saw. Caller holds rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Before(rl.sweepAt) {
		return
	}

	for key, b := range rl.buckets {
		if now.After(b.resetsAt) {
			delete(rl.buckets, key)
		}
	}

	rl.sweepAt = now.Add(rl.window)
}

// KeyByIP keys unauthenticated endpoints by caller address.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP prefers the authenticated user id so one noisy user behind a
// shared NAT does not lock out the others.
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
