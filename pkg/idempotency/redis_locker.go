package idempotency

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker on top of SET NX so multiple API instances
// agree on who runs a guarded operation.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a locker using the given client. Keys are
// namespaced with the prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "tramite:lock"
	}

	return &RedisLocker{client: client, prefix: prefix}
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) key(key string) string {
	return l.prefix + ":" + key
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return acquired, nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	err := l.client.Del(ctx, l.key(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	return nil
}
