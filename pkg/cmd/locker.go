package cmd

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/tramite-io/tramite/pkg/idempotency"
)

// NewLocker creates the idempotency locker. An empty redisURL selects the
// in-process locker, which is only safe with a single API instance.
func NewLocker(redisURL string) idempotency.Locker {
	if redisURL == "" {
		return idempotency.NewMemoryLocker()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	return idempotency.NewRedisLocker(redis.NewClient(opts), "")
}
