// Package main provides the Tramite API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/tramite-io/tramite/pkg/engine"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/web"
)

type API struct {
	logger      *slog.Logger
	engine      *engine.Engine
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	eng *engine.Engine,
	p persistence.Persistence,
) *API {
	return &API{
		logger:      logger,
		engine:      eng,
		persistence: p,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Tramite API")
	})

	w := app.Group("/workflows")
	w.Get("/:typeId", handlers.GetWorkflow)
	w.Put("/:typeId", handlers.SaveWorkflow)

	s := app.Group("/solicitations")
	s.Post("/", handlers.CreateSolicitation)
	s.Get("/:id", handlers.GetSolicitation)
	s.Post("/:id/advance", handlers.AdvanceSolicitation)
	s.Post("/:id/decision", handlers.DecideSolicitation)
	s.Post("/:id/finalize", handlers.FinalizeSolicitation)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
