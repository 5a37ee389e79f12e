package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"socialgrid/pkg/logger"
)

const keyPrefix = "events:seen:"

// Redis is the shared processed-event store. SET NX with a retention TTL
// bounds the tracked set; after the TTL a very late redelivery would apply
// again, which is the accepted trade-off for bounded storage.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (d *Redis) Reserve(ctx context.Context, topic, eventID string) (bool, error) {
	return d.client.SetNX(ctx, keyPrefix+topic+":"+eventID, 1, d.ttl).Result()
}

func (d *Redis) Release(ctx context.Context, topic, eventID string) {
	if err := d.client.Del(ctx, keyPrefix+topic+":"+eventID).Err(); err != nil {
		logger.Warn(ctx, "Dedup release failed", "topic", topic, "event_id", eventID, "error", err)
	}
}
