package idem

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks idempotency keys for send requests. First PutNX of a key wins;
// replays are rejected until the TTL expires.
type Store interface {
	PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisStore struct{ r *redis.Client }

// NewRedis builds a redis-backed Store.
func NewRedis(client *redis.Client) Store {
	return &redisStore{r: client}
}

func (s *redisStore) PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.r.SetNX(ctx, "idem:"+key, "1", ttl).Result()
}
