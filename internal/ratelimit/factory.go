package ratelimit

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"activitynotifier/internal/models"
)

// Set is the group of limiters owned by the notification service: one for
// activities and one per channel, all keyed by identity.
type Set struct {
	Activity Limiter
	Channels map[models.Channel]Limiter
}

// NewSet builds the activity and channel limiters for the configured
// backend. client is required only for the redis backend.
func NewSet(cfg models.RateLimitsConfig, client redis.UniversalClient, opts ...Option) (*Set, error) {
	limits := map[string]models.LimitConfig{
		"activity":                  cfg.Activity,
		string(models.ChannelEmail): cfg.Email,
		string(models.ChannelSMS):   cfg.SMS,
		string(models.ChannelChat):  cfg.Chat,
	}

	built := make(map[string]Limiter, len(limits))
	for name, l := range limits {
		lc := Config{MaxRequests: l.MaxRequests, Window: l.Window, Message: l.Message}
		switch cfg.Backend {
		case models.RateLimitBackendMemory, "":
			built[name] = NewMemoryLimiter(lc, opts...)
		case models.RateLimitBackendRedis:
			if client == nil {
				return nil, fmt.Errorf("redis client is required for the redis rate limit backend")
			}
			prefix := cfg.Redis.KeyPrefix
			if prefix == "" {
				prefix = "notifier:ratelimit"
			}
			built[name] = NewRedisLimiter(client, prefix+":"+name, lc, opts...)
		default:
			return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
		}
	}

	return &Set{
		Activity: built["activity"],
		Channels: map[models.Channel]Limiter{
			models.ChannelEmail: built[string(models.ChannelEmail)],
			models.ChannelSMS:   built[string(models.ChannelSMS)],
			models.ChannelChat:  built[string(models.ChannelChat)],
		},
	}, nil
}

// NewRedisClient creates a client for the shared limiter backend.
func NewRedisClient(cfg models.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
