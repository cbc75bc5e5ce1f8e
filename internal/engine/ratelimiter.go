package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a Redis sliding-window limiter keyed by an arbitrary
// string (the email dispatcher keys it by recipient address).
type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
	script      *redis.Script
	now         func() time.Time
}

// KEYS[1] = window key; ARGV = now (ms), window (ms), limit, member.
// Returns 1 when the call is admitted, 0 when the window is full.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) >= limit then
    return 0
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window + 1000)
return 1
`)

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
		script:      slidingWindowScript,
		now:         time.Now,
	}
}

func rlKey(key string) string {
	return fmt.Sprintf("rl:email:%s", key)
}

// Allow reports whether another call for key fits in the window. A
// non-positive limit disables limiting; Redis errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}

	result, err := rl.script.Run(ctx, rl.redisClient, []string{rlKey(key)},
		rl.now().UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "key", key)
		return true
	}

	if result == 0 {
		rl.logger.Debug("rate limited", "key", key, "limit", limit, "window", window.String())
		return false
	}
	return true
}
