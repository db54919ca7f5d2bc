package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/mars-analytics/rag-platform/internal/config"
)

// New creates a Redis client and verifies the connection with a ping.
func New(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// HealthCheck verifies the Redis connection.
func HealthCheck(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return rdb.Ping(ctx).Err()
}
