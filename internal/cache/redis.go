package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"socialgrid/pkg/logger"
)

// New connects a Redis client. Used for the processed-event store and the
// presence registry; connectivity failure at startup is fatal for the
// services that need it (fail-fast).
func New(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.PoolSize = poolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", poolSize)
	return client, nil
}
