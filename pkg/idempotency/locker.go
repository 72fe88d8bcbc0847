// Package idempotency guards operations that must not run twice for the same
// key, such as finalize-and-forward on one source solicitation.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Locker acquires short-lived exclusive locks by key. Acquire returns false
// when another holder owns the key; callers translate that into an
// invalid-state rejection instead of running the operation again.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// MemoryLocker is the in-process Locker used by tests and single-node
// deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

var _ Locker = (*MemoryLocker)(nil)

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()

	expiry, exists := l.held[key]
	if exists && expiry.After(now) {
		return false, nil
	}

	l.held[key] = now.Add(ttl)

	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)

	return nil
}
