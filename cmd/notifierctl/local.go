package main

import (
	"context"
	"fmt"
	"time"

	"activitynotifier/internal/channel"
	"activitynotifier/internal/config"
	"activitynotifier/internal/logger"
	"activitynotifier/internal/models"
	"activitynotifier/internal/notify"
	"activitynotifier/internal/ratelimit"
	"activitynotifier/internal/simulator"
	"activitynotifier/internal/storage"
	"activitynotifier/internal/version"

	"github.com/redis/go-redis/v9"
)

// runLocalSimulation builds the notification pipeline from configPath and
// runs the simulator against it. Logs go to stderr so they do not mix with
// the command output.
func runLocalSimulation(ctx context.Context, configPath string, count int, seed uint64, delay time.Duration) (*models.SimulateResponse, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Logging.Output != "file" {
		cfg.Logging.Output = "stderr"
	}

	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	var client redis.UniversalClient
	if cfg.RateLimits.Backend == models.RateLimitBackendRedis {
		rc := ratelimit.NewRedisClient(cfg.RateLimits.Redis)
		defer rc.Close()
		client = rc
	}
	limiters, err := ratelimit.NewSet(cfg.RateLimits, client)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	senders, err := channel.NewSenders(cfg.Channels, log)
	if err != nil {
		return nil, err
	}

	svc := notify.NewService(limiters, senders, store, cfg.Channels.Timeout, log)

	opts := []simulator.Option{simulator.WithDelay(delay)}
	if seed != 0 {
		opts = append(opts, simulator.WithSeed(seed))
	}
	events, err := simulator.New(svc, log, opts...).Run(ctx, count)
	if err != nil {
		return nil, err
	}
	return &models.SimulateResponse{Count: len(events), Results: events}, nil
}
