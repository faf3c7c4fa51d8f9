package admission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

// RedisLimiter shares the sliding window across instances using one sorted
// set per identity. When Redis fails the decision falls back to a local limiter.
type RedisLimiter struct {
	rdb      goredis.Scripter
	prefix   string
	fallback Limiter
	log      *logger.Logger
	now      func() time.Time
}

func NewRedisLimiter(rdb goredis.Scripter, fallback Limiter, log *logger.Logger) *RedisLimiter {
	if fallback == nil {
		fallback = NewLocalLimiter()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisLimiter{
		rdb:      rdb,
		prefix:   "healthlog:admission:",
		fallback: fallback,
		log:      log.With("service", "RedisLimiter"),
		now:      time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) bool {
	identity = normalizeIdentity(identity)
	allowed, err := r.allow(ctx, identity, limit, window)
	if err != nil {
		r.log.Warn("redis admission failed; using local window", "identity", identity, "error", err)
		return r.fallback.Allow(ctx, identity, limit, window)
	}
	return allowed
}

// slidingWindowScript prunes hits older than the window (the bound is
// exclusive so a hit exactly one window old still counts), then records the
// new hit only when the remaining count is under the limit. Running it as one
// script keeps concurrent instances from both admitting the last slot.
//
// KEYS[1] window key; ARGV: cutoff, limit, now, member, ttl ms.
const slidingWindowSource = `
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`

var slidingWindowScript = goredis.NewScript(slidingWindowSource)

func (r *RedisLimiter) allow(ctx context.Context, identity string, limit int, window time.Duration) (bool, error) {
	key := r.prefix + identity
	now := r.now()
	cutoff := now.Add(-window).UnixMicro()

	res, err := slidingWindowScript.Run(ctx, r.rdb, []string{key},
		strconv.FormatInt(cutoff, 10),
		limit,
		strconv.FormatInt(now.UnixMicro(), 10),
		uuid.NewString(),
		window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("sliding window: %w", err)
	}
	return res == 1, nil
}
