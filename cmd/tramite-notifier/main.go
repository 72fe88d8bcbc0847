// Package main provides the notification dispatcher service. It consumes
// notification requests from the event bus and delivers them by mail,
// retrying failed deliveries on a schedule.
package main

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/tramite-io/tramite/pkg/cmd"
	"github.com/tramite-io/tramite/pkg/log"
	"github.com/tramite-io/tramite/pkg/notify"
	"github.com/tramite-io/tramite/pkg/otelhelper"
)

const defaultRetryAttempts = 5

func main() {
	command := &cli.Command{
		Name:                  "tramite-notifier",
		Usage:                 "Deliver solicitation notifications",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "notifier-id",
				Aliases: []string{"id"},
				Usage:   "Custom notifier ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("NOTIFIER_ID"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "smtp-addr",
				Usage:   "SMTP server address (host:port); empty logs instead of sending",
				Sources: cli.EnvVars("SMTP_ADDR"),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "Sender address for outgoing mail",
				Value:   "tramite@localhost",
				Sources: cli.EnvVars("SMTP_FROM"),
			},
			&cli.StringFlag{
				Name:    "smtp-user",
				Usage:   "SMTP username (optional)",
				Sources: cli.EnvVars("SMTP_USER"),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password (optional)",
				Sources: cli.EnvVars("SMTP_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "retry-schedule",
				Usage:   "Cron schedule for the failed-delivery sweep",
				Value:   "@every 1m",
				Sources: cli.EnvVars("RETRY_SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "retry-attempts",
				Usage:   "Delivery attempts before a notification is dropped",
				Value:   defaultRetryAttempts,
				Sources: cli.EnvVars("RETRY_ATTEMPTS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			notifierID := command.String("notifier-id")
			if notifierID == "" {
				notifierID = fmt.Sprintf("notifier-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("tramite-notifier").With("notifier_id", notifierID)

			logger.InfoContext(ctx, "Initializing Tramite Notifier")

			tracerProvider, err := otelhelper.InitTracer(ctx, "tramite-notifier")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			defer func() {
				if err := tracerProvider.Shutdown(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "tramite-notifier", logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var transport notify.Transport
			if addr := command.String("smtp-addr"); addr != "" {
				var auth smtp.Auth
				if user := command.String("smtp-user"); user != "" {
					host, _, _ := net.SplitHostPort(addr)
					auth = smtp.PlainAuth("", user, command.String("smtp-password"), host)
				}

				transport = notify.NewSMTPTransport(addr, command.String("smtp-from"), auth)
			} else {
				transport = notify.NewLogTransport(logger)
			}

			journal := notify.NewJournal(command.Int("retry-attempts"), 0)
			dispatcher := notify.NewDispatcher(transport, journal, logger)

			dispatcher.Register(eventBus)

			if err := dispatcher.StartRetry(ctx, command.String("retry-schedule")); err != nil {
				return err
			}

			defer dispatcher.Stop()

			if err := eventBus.Subscribe(ctx); err != nil {
				return fmt.Errorf("failed to subscribe to event bus: %w", err)
			}

			logger.InfoContext(ctx, "Tramite Notifier is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.InfoContext(ctx, "Shutting down")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
