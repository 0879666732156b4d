// Package redisconn provides Redis connection infrastructure.
// This is part of the platform layer and contains no business logic.
package redisconn

import (
	"context"
	"fmt"

	"valora_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client from the configured URL and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
