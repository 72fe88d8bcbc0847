package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/tramite-io/tramite/pkg/eventbus"
	"github.com/tramite-io/tramite/pkg/events"
)

// Dispatcher consumes notification requests from the event bus and delivers
// them through a transport. Failed deliveries land in the journal and are
// retried on a schedule.
type Dispatcher struct {
	transport Transport
	journal   *Journal
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewDispatcher creates a dispatcher delivering through the transport and
// journaling failures.
func NewDispatcher(transport Transport, journal *Journal, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		journal:   journal,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Register subscribes the dispatcher to notification requests. Call before
// the bus starts consuming.
func (d *Dispatcher) Register(bus eventbus.EventBus) {
	bus.Handle(events.NotificationRequestedEvent, d.handle)
}

func (d *Dispatcher) handle(ctx context.Context, event any) error {
	request, ok := event.(*events.NotificationRequested)
	if !ok {
		return fmt.Errorf("unexpected payload %T for notification request", event)
	}

	msg := Message{
		Recipients: request.Recipients,
		Subject:    request.Subject,
		Body:       request.Body,
	}

	d.deliver(ctx, msg, 0)

	return nil
}

// deliver attempts one delivery. A failure is journaled, never returned: the
// bus message is acked either way and the retry loop owns subsequent
// attempts.
func (d *Dispatcher) deliver(ctx context.Context, msg Message, attempts int) {
	err := d.transport.Send(ctx, msg)
	if err == nil {
		return
	}

	d.logger.WarnContext(ctx, "notification delivery failed",
		"recipients", msg.Recipients,
		"attempt", attempts+1,
		"error", err)

	if !d.journal.Record(msg, attempts+1, err.Error()) {
		d.logger.ErrorContext(ctx, "notification dropped after exhausting retries",
			"recipients", msg.Recipients,
			"subject", msg.Subject)
	}
}

// StartRetry schedules the journal sweep. The schedule uses cron syntax,
// e.g. "@every 1m".
func (d *Dispatcher) StartRetry(ctx context.Context, schedule string) error {
	_, err := d.cron.AddFunc(schedule, func() {
		for _, entry := range d.journal.Due() {
			d.deliver(ctx, entry.Message, entry.Attempts)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule notification retry: %w", err)
	}

	d.cron.Start()

	return nil
}

// Stop halts the retry schedule, waiting for a running sweep to finish.
func (d *Dispatcher) Stop() {
	<-d.cron.Stop().Done()
}
