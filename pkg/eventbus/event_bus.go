// Package eventbus provides publish/subscribe access to the domain event
// stream.
package eventbus

import (
	"context"

	"github.com/tramite-io/tramite/pkg/events"
)

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event any) error

// EventBus publishes domain events and routes subscribed event types to
// handlers.
type EventBus interface {
	Publish(ctx context.Context, key string, event events.Event) error
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
	GenerateID() string
	Close() error
}
