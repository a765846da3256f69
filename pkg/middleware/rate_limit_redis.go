package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/carelink/carelink/backend/go-services/pkg/logger"
	"github.com/carelink/carelink/backend/go-services/pkg/metrics"
)

// redisLimiter is a fixed-window counter shared by every replica. When Redis
// cannot be reached it degrades to a local token bucket.
type redisLimiter struct {
	client   *redis.Client
	window   int
	allowed  int64
	now      func() time.Time
	fallback *memoryLimiter
	log      logger.Component
}

func newRedisLimiter(client *redis.Client, rps float64, burst int, window time.Duration) *redisLimiter {
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	return &redisLimiter{
		client:   client,
		window:   windowSeconds,
		allowed:  int64(rps*float64(windowSeconds)) + int64(burst),
		now:      time.Now,
		fallback: newMemoryLimiter(rps, burst),
		log:      logger.Named("ratelimit"),
	}
}

func (l *redisLimiter) handle(c *gin.Context) {
	key := "rl:" + clientKey(c)
	bucket := l.now().Unix() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%d", key, bucket)
	ctx := c.Request.Context()

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warnf("redis unavailable, limiting locally: %v", err)
		if !l.fallback.allow(key) {
			reject(c, "memory", 1)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
		return
	}
	if cnt == 1 {
		_ = l.client.Expire(ctx, redisKey, time.Duration(l.window+1)*time.Second).Err()
	}
	if cnt > l.allowed {
		reject(c, "redis", l.window)
		return
	}
	metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
	c.Next()
}

func reject(c *gin.Context, limiter string, retryAfter int) {
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
}

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter.
// Algorithm: INCR a per-window key and compare against allowed = floor(rps*windowSeconds)+burst.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	return newRedisLimiter(client, rps, burst, window).handle
}
