package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/events"
)

// flakyTransport fails the first n deliveries.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	sent     []Message
}

func (t *flakyTransport) Send(_ context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failures > 0 {
		t.failures--

		return errors.New("connection refused")
	}

	t.sent = append(t.sent, msg)

	return nil
}

func newTestDispatcher(transport Transport, journal *Journal) *Dispatcher {
	return NewDispatcher(transport, journal, slog.Default())
}

func TestHandle_DeliversNotification(t *testing.T) {
	transport := &flakyTransport{}
	dispatcher := newTestDispatcher(transport, NewJournal(3, time.Minute))

	err := dispatcher.handle(context.Background(), &events.NotificationRequested{
		Recipients: []string{"ana@example.com"},
		Subject:    "Solicitação RQ250114-0042",
		Body:       "corpo",
	})
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, transport.sent[0].Recipients)
}

func TestHandle_UnexpectedPayloadFails(t *testing.T) {
	dispatcher := newTestDispatcher(&flakyTransport{}, NewJournal(3, time.Minute))

	err := dispatcher.handle(context.Background(), &events.SolicitationCreated{})

	require.Error(t, err)
}

func TestHandle_FailureIsJournaledNotReturned(t *testing.T) {
	transport := &flakyTransport{failures: 1}
	journal := NewJournal(3, time.Minute)
	dispatcher := newTestDispatcher(transport, journal)

	err := dispatcher.handle(context.Background(), &events.NotificationRequested{
		Recipients: []string{"ana@example.com"},
		Subject:    "assunto",
	})

	require.NoError(t, err)
	assert.Empty(t, transport.sent)
	assert.Equal(t, 1, journal.Len())
}

func TestJournal_DueRespectsBackoff(t *testing.T) {
	journal := NewJournal(3, time.Minute)

	now := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)
	journal.clock = func() time.Time { return now }

	require.True(t, journal.Record(Message{Subject: "a"}, 1, "boom"))

	assert.Empty(t, journal.Due())

	now = now.Add(2 * time.Minute)

	due := journal.Due()
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].Message.Subject)
	assert.Equal(t, 1, due[0].Attempts)

	// Due drains the journal.
	assert.Zero(t, journal.Len())
}

func TestJournal_DropsAfterMaxAttempts(t *testing.T) {
	journal := NewJournal(2, time.Minute)

	assert.True(t, journal.Record(Message{}, 1, "boom"))
	assert.False(t, journal.Record(Message{}, 2, "boom"))
}

func TestDeliver_RetrySucceedsAndStopsJournaling(t *testing.T) {
	transport := &flakyTransport{failures: 1}
	journal := NewJournal(3, time.Minute)

	now := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)
	journal.clock = func() time.Time { return now }

	dispatcher := newTestDispatcher(transport, journal)

	msg := Message{Recipients: []string{"ana@example.com"}, Subject: "retry"}

	dispatcher.deliver(context.Background(), msg, 0)
	require.Equal(t, 1, journal.Len())

	now = now.Add(2 * time.Minute)

	for _, entry := range journal.Due() {
		dispatcher.deliver(context.Background(), entry.Message, entry.Attempts)
	}

	require.Len(t, transport.sent, 1)
	assert.Zero(t, journal.Len())
}
