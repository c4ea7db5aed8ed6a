package main

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shwemart/shwemart/internal/cache"
	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/jobs"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	backoff := cfg.Worker.BackoffBase
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// 5s, 10s, 20s, ... doubling per attempt.
				return backoff << uint(n)
			},
			Logger: logger,
		},
	)

	responseCache := cache.New(redisClient, logger)

	h := asynq.NewServeMux()
	h.Handle(jobs.TypeImageOptimize, jobs.NewImageHandler(cfg.Upload.OptimizeDir, logger))
	h.Handle(jobs.TypeCacheInvalidate, jobs.NewCacheHandler(responseCache, logger))

	logger.WithField("concurrency", cfg.Worker.Concurrency).Info("Starting worker")
	if err := srv.Run(h); err != nil {
		logger.WithError(err).Fatal("Worker failed to start")
	}
	logger.Info("Worker exited")
}
