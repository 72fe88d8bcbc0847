package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/tramite-io/tramite/pkg/engine"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/workflow"
)

type APIHandlers struct {
	engine      *engine.Engine
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	eng *engine.Engine,
	p persistence.Persistence,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		engine:      eng,
		persistence: p,
		validator:   validate,
	}
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	typeID := c.Params("typeId")
	if typeID == "" {
		return badRequest(c, "Type ID is required")
	}

	graph, err := h.persistence.WorkflowByTypeID(c.Context(), typeID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(graph)
}

// SaveWorkflow replaces the type's routing graph. The graph is validated
// structurally before anything is written; an invalid graph leaves the
// previous one untouched.
func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	typeID := c.Params("typeId")
	if typeID == "" {
		return badRequest(c, "Type ID is required")
	}

	var req SaveWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := workflow.Validate(req.Nodes, req.Edges); err != nil {
		return handleGraphError(c, err)
	}

	now := time.Now().UTC()

	graph := &models.Workflow{
		TypeID:       typeID,
		DepartmentID: req.DepartmentID,
		Active:       req.Active,
		Nodes:        req.Nodes,
		Edges:        req.Edges,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.persistence.SaveWorkflow(c.Context(), graph); err != nil {
		return internalError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) CreateSolicitation(c fiber.Ctx) error {
	var req CreateSolicitationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	solicitation, err := h.engine.Create(c.Context(), engine.CreateRequest{
		TypeID:           req.TypeID,
		DepartmentID:     req.DepartmentID,
		CostCenterID:     req.CostCenterID,
		SolicitanteID:    req.SolicitanteID,
		Payload:          req.Payload,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(solicitation)
}

// GetSolicitation returns the solicitation with its timeline and attachment
// listing.
func (h *APIHandlers) GetSolicitation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Solicitation ID is required")
	}

	solicitation, err := h.persistence.SolicitationByID(c.Context(), id)
	if err != nil {
		if persistence.IsSolicitationNotFound(err) {
			return notFound(c, "Solicitation not found")
		}

		return internalError(c, err)
	}

	timeline, err := h.persistence.TimelineBySolicitation(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	attachments, err := h.persistence.AttachmentsBySolicitation(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(SolicitationResponse{
		Solicitation: solicitation,
		Timeline:     timeline,
		Attachments:  attachments,
	})
}

func (h *APIHandlers) AdvanceSolicitation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Solicitation ID is required")
	}

	var req AdvanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	solicitation, err := h.engine.Advance(c.Context(), id, req.Condition, req.ActorID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(solicitation)
}

func (h *APIHandlers) DecideSolicitation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Solicitation ID is required")
	}

	var req DecisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	solicitation, err := h.engine.Decide(c.Context(), id, req.ApproverID, models.Decision(req.Decision), req.Condition)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(solicitation)
}

func (h *APIHandlers) FinalizeSolicitation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Solicitation ID is required")
	}

	var req FinalizeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.FinalizeAndForward(c.Context(), id, req.Fields, req.ActorID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(FinalizeResponse{
		Source: result.Source,
		Child:  result.Child,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Tramite API is healthy"
	httpStatus := http.StatusOK

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Tramite API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
