package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// tokenBucket refills at ARGV[1] tokens per second up to ARGV[2] and
// consumes one token per call. Bucket state is {last_refill, tokens}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill)
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RateLimiter throttles gestures per route and client using a Redis token bucket.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// Allow takes one token from the bucket stored under key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(rl.now().UnixMicro()) / 1e6

	allowed, err := tokenBucket.Run(ctx, rl.client, []string{key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		now,
		rl.bucketTTL(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("token bucket %s: %w", key, err)
	}
	return allowed == 1, nil
}

// bucketTTL keeps a bucket long enough to refill completely, and at least a minute.
func (rl *RateLimiter) bucketTTL() int {
	ttl := 60
	if rl.config.RequestsPerSecond > 0 {
		if refill := int(float64(rl.config.BurstCapacity)/rl.config.RequestsPerSecond) + 1; refill > ttl {
			ttl = refill
		}
	}
	return ttl
}

// Middleware returns a Gin middleware enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.client == nil || !rl.config.Enabled {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, c.FullPath(), clientIP)

		allowed, err := rl.Allow(c.Request.Context(), key)
		if err != nil {
			// On Redis error, allow request to proceed (fail open)
			rl.log.Warn("rate limiter redis error, allowing request",
				zap.String("client_ip", clientIP),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", c.FullPath()),
				zap.Float64("limit", rl.config.RequestsPerSecond),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)", rl.config.RequestsPerSecond, rl.config.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
