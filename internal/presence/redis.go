package presence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const connKeyPrefix = "presence:conn:"

// RedisRegistry is the shared session registry for multi-instance
// deployments. Entries expire after ttl so a crashed instance cannot leave a
// user permanently "connected".
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Register(ctx context.Context, userID, connID string) error {
	return r.client.Set(ctx, connKeyPrefix+userID, connID, r.ttl).Err()
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID string) (string, bool, error) {
	connID, err := r.client.Get(ctx, connKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return connID, true, nil
}

func (r *RedisRegistry) Unregister(ctx context.Context, userID string) error {
	return r.client.Del(ctx, connKeyPrefix+userID).Err()
}
