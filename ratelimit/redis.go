package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slidingWindowScript prunes expired entries, checks capacity, and records the
// admitted requests in one atomic round trip. All times are in milliseconds.
// Returns {allowed, remaining, retry_after_ms}.
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local n = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count + n > capacity then
	local retry = window
	local need = count + n - capacity
	local oldest = redis.call('ZRANGE', key, need - 1, need - 1, 'WITHSCORES')
	if oldest[2] then
		retry = (tonumber(oldest[2]) + window) - now
	end
	if retry < 0 then
		retry = 0
	end
	return {0, capacity - count, retry}
end

for i = 1, n do
	redis.call('ZADD', key, now, member .. ':' .. i)
end
redis.call('PEXPIRE', key, window)
return {1, capacity - count - n, 0}
`

// RedisSlidingWindow is a sliding-window limiter shared across processes,
// backed by a Redis sorted set keyed by request timestamp.
type RedisSlidingWindow struct {
	client   redis.UniversalClient
	script   *redis.Script
	key      string
	capacity int
	window   time.Duration
	logger   *zap.Logger

	now func() time.Time
}

// NewRedisSlidingWindow creates a limiter admitting capacity requests per
// trailing window on the given key.
func NewRedisSlidingWindow(client redis.UniversalClient, key string, capacity int, window time.Duration, logger *zap.Logger) *RedisSlidingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSlidingWindow{
		client:   client,
		script:   redis.NewScript(slidingWindowScript),
		key:      key,
		capacity: capacity,
		window:   window,
		logger:   logger.With(zap.String("component", "ratelimit"), zap.String("key", key)),
		now:      time.Now,
	}
}

// Consume attempts to admit n requests (n < 1 is treated as 1). A denial is
// reported in the Result; the error is non-nil only for Redis failures.
func (r *RedisSlidingWindow) Consume(ctx context.Context, n int) (Result, error) {
	if n < 1 {
		n = 1
	}
	now := r.now()

	raw, err := r.script.Run(ctx, r.client,
		[]string{r.key},
		now.UnixMilli(),
		r.window.Milliseconds(),
		r.capacity,
		n,
		fmt.Sprintf("%d:%s", now.UnixMilli(), uuid.NewString()),
	).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("sliding window script: %w", err)
	}
	if len(raw) != 3 {
		return Result{}, fmt.Errorf("sliding window script: unexpected reply %v", raw)
	}

	allowed := toInt64(raw[0]) == 1
	res := Result{
		Allowed:    allowed,
		Remaining:  int(toInt64(raw[1])),
		RetryAfter: time.Duration(toInt64(raw[2])) * time.Millisecond,
		ResetAt:    now.Add(r.window),
	}
	if !allowed {
		r.logger.Debug("consume denied",
			zap.Int("requested", n),
			zap.Duration("retry_after", res.RetryAfter),
		)
	}
	return res, nil
}

// Reset clears the request log.
func (r *RedisSlidingWindow) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		var out int64
		fmt.Sscan(n, &out)
		return out
	default:
		return 0
	}
}
