package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/meetlite/meetlite/pkg/redis"
	"github.com/meetlite/meetlite/pkg/response"
)

// RateLimitConfig holds rate limiting configuration for the join endpoint.
// Limiting is per authenticated caller, not per IP: the thing being
// protected is the event row's write path, and one user hammering retry
// should not consume another user's budget.
type RateLimitConfig struct {
	// Token refill rate per second per caller (0 = unlimited)
	RequestsPerSecond int
	// Burst size (token bucket capacity)
	BurstSize int
	// Redis client for distributed limiting across instances
	RedisClient *pkgredis.Client
	// Key prefix for Redis
	KeyPrefix string
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		KeyPrefix:         "ratelimit:rsvp:",
	}
}

// tokenBucketScript is an atomic token bucket evaluated inside Redis, so
// all server instances share one bucket per caller.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

local elapsed = now - last_update
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return allowed
`

// RedisRateLimiter implements distributed token-bucket rate limiting
type RedisRateLimiter struct {
	config RateLimitConfig
}

// NewRedisRateLimiter creates a new Redis rate limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config}
}

// Allow checks if a request should be allowed
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	result := rl.config.RedisClient.Redis().Eval(ctx, tokenBucketScript,
		[]string{rl.config.KeyPrefix + key},
		float64(rl.config.RequestsPerSecond),
		float64(rl.config.BurstSize),
		now,
	)
	if result.Err() != nil {
		return false, result.Err()
	}

	allowed, err := result.Int64()
	if err != nil {
		return false, fmt.Errorf("unexpected rate limit result: %w", err)
	}
	return allowed == 1, nil
}

// RateLimitByUser creates a per-caller rate limiting middleware. It must
// run after JWTMiddleware so the caller identity is present. Redis errors
// fail open: a limiter outage should not take down admissions.
func RateLimitByUser(config RateLimitConfig) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 || config.RedisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRedisRateLimiter(config)

	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), userID)
		if err != nil {
			allowed = true
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.TooManyRequests(""))
			return
		}

		c.Next()
	}
}
