package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/tramite-io/tramite/pkg/engine"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps domain errors to problem documents. Unknown errors
// surface as 500 without leaking details.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case engine.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, engine.ErrAmbiguousTransition):
		return badRequest(c, err.Error())

	case errors.Is(err, engine.ErrForbidden):
		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("forbidden").
			WithDetail(err.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case persistence.IsSolicitationNotFound(err):
		return notFound(c, "solicitation not found")

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow not found")

	case errors.Is(err, engine.ErrInvalidState):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("invalid_state").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, engine.ErrUnsupportedType):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("unsupported_type").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case engine.IsConfigurationError(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("configuration_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	default:
		return internalError(c, err)
	}
}

// handleGraphError maps graph validation failures on workflow saves.
func handleGraphError(c fiber.Ctx, err error) error {
	if workflow.IsStructureError(err) || workflow.IsConfigurationError(err) {
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_graph").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
	}

	return internalError(c, err)
}
