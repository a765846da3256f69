package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/carelink/carelink/backend/go-services/pkg/metrics"
)

// clientKey prefers the authenticated subject and falls back to the client IP.
func clientKey(c *gin.Context) string {
	if cl, ok := ClaimsFrom(c); ok && cl.Subject != "" {
		return "sub:" + cl.Subject
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// memoryLimiter keeps one token bucket per key.
type memoryLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newMemoryLimiter(rps float64, burst int) *memoryLimiter {
	if burst < 1 {
		burst = 1
	}
	return &memoryLimiter{rps: rate.Limit(rps), burst: burst, limiters: map[string]*rate.Limiter{}}
}

func (m *memoryLimiter) allow(key string) bool {
	m.mu.Lock()
	lim, ok := m.limiters[key]
	if !ok {
		lim = rate.NewLimiter(m.rps, m.burst)
		m.limiters[key] = lim
	}
	m.mu.Unlock()
	return lim.Allow()
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	lim := newMemoryLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.allow(clientKey(c)) {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
