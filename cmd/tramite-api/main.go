package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/tramite-io/tramite/pkg/cmd"
	"github.com/tramite-io/tramite/pkg/engine"
	"github.com/tramite-io/tramite/pkg/log"
	"github.com/tramite-io/tramite/pkg/otelhelper"
	"github.com/tramite-io/tramite/pkg/recipients"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "tramite-api",
		Usage:                 "Route solicitations through department workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or memory://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "directory-path",
				Usage:    "Path to the organizational directory JSON file",
				Required: true,
				Sources:  cli.EnvVars("DIRECTORY_PATH"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the distributed idempotency locker (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Public base URL used in notification links",
				Value:   "http://localhost:9091",
				Sources: cli.EnvVars("BASE_URL"),
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

			logger.InfoContext(ctx, "Initializing Tramite API")

			tracerProvider, err := otelhelper.InitTracer(ctx, "tramite-api")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			defer func() {
				if err := tracerProvider.Shutdown(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "tramite-api", logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			directory := cmd.NewDirectory(command.String("directory-path"))
			resolver := recipients.NewResolver(directory, logger)

			eng := engine.New(engine.Config{
				Persistence: persistence,
				Directory:   directory,
				Recipients:  resolver,
				EventBus:    eventBus,
				Locker:      cmd.NewLocker(command.String("redis-url")),
				Logger:      logger,
				Tracer:      otelhelper.NewTracer("tramite-api"),
				BaseURL:     command.String("base-url"),
			})

			api := NewAPI(logger, eng, persistence)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
