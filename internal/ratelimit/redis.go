package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript performs the whole read-reset-increment-compare sequence
// in one atomic step. The hash holds "count" and "reset" (unix millis).
// The key is kept for one extra window after reset so that Status can still
// report a lapsed window, matching the memory backend.
const fixedWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

local vals = redis.call('HMGET', key, 'count', 'reset')
local count = 0
local reset = now + window
if vals[1] and vals[2] then
  count = tonumber(vals[1])
  reset = tonumber(vals[2])
end

if now > reset then
  count = 0
  reset = now + window
end

local allowed = 0
if count < max then
  count = count + 1
  allowed = 1
end

redis.call('HSET', key, 'count', string.format('%d', count), 'reset', string.format('%d', reset))
redis.call('PEXPIREAT', key, string.format('%d', reset + window))
return {allowed, count, reset}
`

var fixedWindow = redis.NewScript(fixedWindowScript)

// RedisLimiter is a fixed-window Limiter whose counters live in Redis, so
// several service replicas share one set of limits.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
	clock  Clock
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter storing keys under "<prefix>:<key>".
// Each limiter needs its own prefix; Clear deletes everything under it.
func NewRedisLimiter(client redis.UniversalClient, prefix string, cfg Config, opts ...Option) *RedisLimiter {
	o := buildOptions(opts)
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		cfg:    cfg.withDefaults(),
		clock:  o.clock,
	}
}

func (r *RedisLimiter) redisKey(key string) string {
	return r.prefix + ":" + key
}

// Check implements Limiter.
func (r *RedisLimiter) Check(ctx context.Context, key string) (Decision, error) {
	now := r.clock()
	raw, err := fixedWindow.Run(ctx, r.client, []string{r.redisKey(key)},
		now.UnixMilli(), r.cfg.Window.Milliseconds(), r.cfg.MaxRequests).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(raw) != 3 {
		return Decision{}, fmt.Errorf("rate limit check: unexpected script result %v", raw)
	}

	allowed, _ := raw[0].(int64)
	count, _ := raw[1].(int64)
	reset, _ := raw[2].(int64)

	d := Decision{
		Allowed:   allowed == 1,
		Current:   int(count),
		Max:       r.cfg.MaxRequests,
		Remaining: remaining(r.cfg.MaxRequests, int(count)),
		ResetAt:   time.UnixMilli(reset),
	}
	if !d.Allowed {
		d.Message = r.cfg.Message
	}
	return d, nil
}

// Status implements Limiter.
func (r *RedisLimiter) Status(ctx context.Context, key string) (*Status, error) {
	vals, err := r.client.HMGet(ctx, r.redisKey(key), "count", "reset").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("rate limit status: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, nil
	}

	count, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return nil, fmt.Errorf("rate limit status: bad count: %w", err)
	}
	reset, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("rate limit status: bad reset: %w", err)
	}
	return newStatus(count, r.cfg.MaxRequests, time.UnixMilli(reset), r.clock()), nil
}

// Remove implements Limiter.
func (r *RedisLimiter) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("rate limit remove: %w", err)
	}
	return nil
}

// Clear implements Limiter.
func (r *RedisLimiter) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("rate limit clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rate limit clear: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("rate limit clear: %w", err)
		}
	}
	return nil
}

// Config implements Limiter.
func (r *RedisLimiter) Config() Config {
	return r.cfg
}
