package notify

import (
	"sync"
	"time"
)

// FailedDelivery is one journal row awaiting retry.
type FailedDelivery struct {
	Message   Message
	Attempts  int
	LastError string
	NextTry   time.Time
}

// Journal keeps failed deliveries in memory for later retry. Entries are
// dropped after maxAttempts; a notification is never allowed to retry
// forever.
type Journal struct {
	mu          sync.Mutex
	entries     []*FailedDelivery
	maxAttempts int
	backoff     time.Duration
	clock       func() time.Time
}

// NewJournal creates a journal retrying each failed delivery up to
// maxAttempts times, spaced by backoff.
func NewJournal(maxAttempts int, backoff time.Duration) *Journal {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	if backoff <= 0 {
		backoff = time.Minute
	}

	return &Journal{
		maxAttempts: maxAttempts,
		backoff:     backoff,
		clock:       time.Now,
	}
}

// Record stores a failed delivery for retry. Returns false when the message
// exhausted its attempts and was dropped instead.
func (j *Journal) Record(msg Message, attempts int, lastError string) bool {
	if attempts >= j.maxAttempts {
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, &FailedDelivery{
		Message:   msg,
		Attempts:  attempts,
		LastError: lastError,
		NextTry:   j.clock().Add(j.backoff),
	})

	return true
}

// Due removes and returns every entry whose retry time has passed.
func (j *Journal) Due() []*FailedDelivery {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.clock()

	var due, remaining []*FailedDelivery

	for _, entry := range j.entries {
		if entry.NextTry.After(now) {
			remaining = append(remaining, entry)

			continue
		}

		due = append(due, entry)
	}

	j.entries = remaining

	return due
}

// Len reports how many deliveries are waiting.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}
