package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"icpep-backend/internal/config"
	"icpep-backend/internal/logger"
)

// Connect returns a pinged client, or nil and the error when Redis is unreachable.
// Callers treat a nil client as "Redis disabled".
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	for i := 0; i < 3; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("REDIS", "Connected to Redis at "+cfg.Addr)
			return client, nil
		}
		log.Warn("REDIS", fmt.Sprintf("Redis ping failed (attempt %d/3): %v", i+1, err))
		time.Sleep(time.Second)
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
}
