package abuse

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisTrackFailureScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local threshold = tonumber(ARGV[3])
local block_ms = tonumber(ARGV[4])
local retention_ms = tonumber(ARGV[5])

local window_start = tonumber(redis.call("HGET", key, "window_start") or "0")
local count = tonumber(redis.call("HGET", key, "count") or "0")

if window_start == 0 or (now_ms - window_start) > window_ms then
  window_start = now_ms
  count = 0
end
count = count + 1

local tripped = 0
local blocked_until = tonumber(redis.call("HGET", key, "blocked_until") or "0")
if count >= threshold and blocked_until <= now_ms then
  blocked_until = now_ms + block_ms
  tripped = 1
end

redis.call("HSET", key, "count", count, "window_start", window_start, "blocked_until", blocked_until)
redis.call("PEXPIRE", key, retention_ms)
return {count, tripped}
`)

// RedisTracker shares abuse counters across instances. Same contract as the
// local tracker; failures of the redis backend fail open so a cache outage
// never rejects legitimate traffic.
type RedisTracker struct {
	client redis.UniversalClient
	prefix string
	opts   Options
	logger *slog.Logger
}

func NewRedisTracker(client redis.UniversalClient, prefix string, opts Options, logger *slog.Logger) *RedisTracker {
	if prefix == "" {
		prefix = "abuse"
	}
	return &RedisTracker{client: client, prefix: prefix, opts: opts.withDefaults(), logger: logger}
}

func (t *RedisTracker) redisKey(key string) string {
	return t.prefix + ":" + key
}

func (t *RedisTracker) TrackFailure(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	now := time.Now()
	raw, err := redisTrackFailureScript.Run(ctx, t.client, []string{t.redisKey(key)},
		now.UnixMilli(),
		t.opts.Window.Milliseconds(),
		t.opts.Threshold,
		t.opts.BlockFor.Milliseconds(),
		t.opts.Retention.Milliseconds(),
	).Result()
	if err != nil {
		t.logger.Warn("abuse tracker redis unavailable", "error", err.Error())
		return
	}
	values, ok := raw.([]interface{})
	if ok && len(values) == 2 {
		if tripped, _ := values[1].(int64); tripped == 1 {
			t.logger.Warn("auto-blocking client", "key", key, "reason", reason)
		}
	}
}

func (t *RedisTracker) IsBlocked(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	raw, err := t.client.HGet(ctx, t.redisKey(key), "blocked_until").Int64()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		t.logger.Warn("abuse tracker redis unavailable", "error", err.Error())
		return false
	}
	return raw > time.Now().UnixMilli()
}

func (t *RedisTracker) Block(ctx context.Context, key string, d time.Duration) {
	until := time.Now().Add(d).UnixMilli()
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, t.redisKey(key), "blocked_until", until)
	pipe.PExpire(ctx, t.redisKey(key), t.opts.Retention)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("abuse tracker redis unavailable", "error", err.Error())
	}
}
