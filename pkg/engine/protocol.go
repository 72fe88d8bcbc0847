package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// NewProtocolo builds a protocol number in the fixed external format
// RQ + YYMMDD + "-" + 4-digit zero-padded random suffix, e.g. RQ250114-0042.
// Uniqueness is only probabilistic here; the store's unique constraint is the
// backstop and the caller retries on a collision.
func NewProtocolo(now time.Time, rng *rand.Rand) string {
	return fmt.Sprintf("RQ%s-%04d", now.Format("060102"), rng.Intn(10000))
}

// newProtocolo draws a protocol number from the engine's shared generator.
func (e *Engine) newProtocolo(now time.Time) string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	return NewProtocolo(now, e.rng)
}
