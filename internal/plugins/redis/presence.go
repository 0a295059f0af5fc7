package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLastSeenStore records per-user last-seen timestamps. Live presence
// is never stored here; the registry reconstructs it from connections.
// These keys only decorate the sidebar for users who are offline.
type RedisLastSeenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLastSeenStore(rdb *redis.Client, ttl time.Duration) *RedisLastSeenStore {
	return &RedisLastSeenStore{rdb: rdb, ttl: ttl}
}

func (s *RedisLastSeenStore) key(userID string) string {
	return "lastseen:" + userID
}

func (s *RedisLastSeenStore) Touch(ctx context.Context, userID string) error {
	return s.rdb.Set(ctx, s.key(userID), time.Now().UTC().Format(time.RFC3339Nano), s.ttl).Err()
}

func (s *RedisLastSeenStore) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
