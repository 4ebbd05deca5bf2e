package core

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClientRaw is the minimal subset used for replica heartbeats. The
// job-queue-shaped RedisClient (Enqueue/Reserve/Ack) from the prototype
// this was built from is not carried forward: spec §5 deliberately has no
// in-core queue, each request is executed synchronously against its own
// adapter/supervisor chain, so Redis here only stores replica heartbeats
// for cross-replica liveness lookups (ReadHeartbeat). GET /health does not
// read Redis.
type RedisClientRaw interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisClient returns a configured go-redis client from URL (e.g.
// redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
