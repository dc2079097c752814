package antiabuse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps rate-limit buckets in a shared Redis instance so multiple
// replicas enforce one limit. Errors surface as "no bucket" / no-ops: the
// gate degrades open on infrastructure faults, so a flaky Redis must not
// block traffic.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore wraps an existing client. window sizes the key TTL at two
// windows, which doubles as garbage collection.
func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    2 * window,
		prefix: "ratelimit:",
	}
}

func (s *RedisStore) Get(key string) (Bucket, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		return Bucket{}, false
	}
	var bucket Bucket
	if err := json.Unmarshal(raw, &bucket); err != nil {
		return Bucket{}, false
	}
	return bucket, true
}

func (s *RedisStore) Set(key string, bucket Bucket) {
	ctx, cancel := s.opContext()
	defer cancel()

	raw, err := json.Marshal(bucket)
	if err != nil {
		return
	}
	s.client.Set(ctx, s.prefix+key, raw, s.ttl)
}

func (s *RedisStore) Delete(key string) {
	ctx, cancel := s.opContext()
	defer cancel()
	s.client.Del(ctx, s.prefix+key)
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}
