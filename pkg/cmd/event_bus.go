// Package cmd provides common initialization functions for the service
// binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tramite-io/tramite/pkg/channels/gochannel"
	"github.com/tramite-io/tramite/pkg/channels/kafka"
	"github.com/tramite-io/tramite/pkg/eventbus"
)

// NewEventBus creates the event bus for the given provider. "kafka" connects
// to the brokers in KAFKA_BROKERS; "gochannel" keeps everything in-process
// for single-node deployments and local development.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create in-process pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
