package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tramite-io/tramite/pkg/directory"
	"github.com/tramite-io/tramite/pkg/eventbus"
	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/idempotency"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/recipients"
	"github.com/tramite-io/tramite/pkg/template"
	"github.com/tramite-io/tramite/pkg/workflow"
)

// Config wires the engine's collaborators. Everything is passed in
// explicitly; the engine keeps no process-wide state.
type Config struct {
	Persistence persistence.Persistence
	Directory   directory.Directory
	Recipients  *recipients.Resolver
	EventBus    eventbus.EventBus
	Locker      idempotency.Locker
	Logger      *slog.Logger
	Tracer      trace.Tracer

	// BaseURL is the public address used to build the {link} placeholder.
	BaseURL string

	// Now and Rand exist so tests control time and protocol suffixes.
	Now  func() time.Time
	Rand *rand.Rand
}

// Engine advances solicitations through their routing graphs. All mutating
// operations run inside one unit of work; domain events and notification
// requests are published only after the transaction commits.
type Engine struct {
	store      persistence.Persistence
	directory  directory.Directory
	recipients *recipients.Resolver
	bus        eventbus.EventBus
	locker     idempotency.Locker
	logger     *slog.Logger
	tracer     trace.Tracer
	baseURL    string
	now        func() time.Time

	// rngMu serializes protocol suffix draws; rand.Rand is not safe for the
	// concurrent request goroutines Create and FinalizeAndForward run on.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an engine from the given configuration.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("tramite")
	}

	locker := cfg.Locker
	if locker == nil {
		locker = idempotency.NewMemoryLocker()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:      cfg.Persistence,
		directory:  cfg.Directory,
		recipients: cfg.Recipients,
		bus:        cfg.EventBus,
		locker:     locker,
		logger:     logger,
		tracer:     tracer,
		baseURL:    cfg.BaseURL,
		now:        now,
		rng:        rng,
	}
}

// loadGraph returns the saved graph for a type or the deterministic default
// single path when none exists yet. The returned graph is the one consistent
// snapshot used for the entire operation.
func (e *Engine) loadGraph(ctx context.Context, store persistence.Store, typeID string) (*models.Workflow, error) {
	graph, err := store.WorkflowByTypeID(ctx, typeID)
	if err == nil {
		return graph, nil
	}

	if !persistence.IsWorkflowNotFound(err) {
		return nil, err
	}

	requestType, typeErr := e.directory.TypeByID(ctx, typeID)
	if typeErr != nil {
		return nil, &ConfigurationError{Lookup: "type", Key: typeID, Err: typeErr}
	}

	// The default gate is decided by the owning department's approver group.
	var approverGroupID string
	if department, deptErr := e.directory.DepartmentByID(ctx, requestType.DepartmentID); deptErr == nil {
		approverGroupID = department.ApproverGroupID
	}

	return workflow.DefaultGraph(typeID, requestType.DepartmentID, approverGroupID), nil
}

// renderContext assembles the placeholder values for a solicitation at a
// node. Directory lookups are best-effort: a missing name renders as the raw
// identifier rather than failing the notification.
func (e *Engine) renderContext(ctx context.Context, solicitation *models.Solicitation, node *models.StepNode) template.Context {
	renderCtx := template.Context{
		Protocolo: solicitation.Protocolo,
		Link:      fmt.Sprintf("%s/solicitations/%s", e.baseURL, solicitation.ID),
	}

	if requestType, err := e.directory.TypeByID(ctx, solicitation.TypeID); err == nil {
		renderCtx.TipoCodigo = requestType.Code
		renderCtx.TipoNome = requestType.Name
	} else {
		renderCtx.TipoCodigo = solicitation.TypeID
	}

	if solicitante, err := e.directory.UserByID(ctx, solicitation.SolicitanteID); err == nil {
		renderCtx.Solicitante = solicitante.Name
	} else {
		renderCtx.Solicitante = solicitation.SolicitanteID
	}

	departmentID := solicitation.DepartmentID
	if node != nil && node.IsDepartment() {
		departmentID = node.Department.DepartmentID
	}

	if department, err := e.directory.DepartmentByID(ctx, departmentID); err == nil {
		renderCtx.DepartamentoAtual = department.Name
	} else {
		renderCtx.DepartamentoAtual = departmentID
	}

	return renderCtx
}

// notificationFor renders the notification for entering a node and wraps it
// in a dispatch request, or returns nil when no recipients resolve.
func (e *Engine) notificationFor(ctx context.Context, solicitation *models.Solicitation, node *models.StepNode, approval bool) *events.NotificationRequested {
	audience, err := e.recipients.Resolve(ctx, node)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to resolve recipients, skipping notification",
			"solicitation_id", solicitation.ID, "node", node.Key, "error", err)

		return nil
	}

	if len(audience) == 0 {
		return nil
	}

	renderCtx := e.renderContext(ctx, solicitation, node)

	var rendered template.Rendered
	if approval {
		rendered = template.RenderApproval(node.ApprovalTemplate, renderCtx)
	} else {
		rendered = template.Render(node.NotificationTemplate, renderCtx)
	}

	return &events.NotificationRequested{
		BaseEvent:  events.NewBaseEvent(events.NotificationRequestedEvent, solicitation.ID),
		Recipients: audience,
		Subject:    rendered.Subject,
		Body:       rendered.Body,
	}
}

// publish sends the collected events after the transaction committed.
// Dispatch is best-effort: a bus failure is logged, never surfaced.
func (e *Engine) publish(ctx context.Context, pending []events.Event) {
	for _, event := range pending {
		if event == nil {
			continue
		}

		err := e.bus.Publish(ctx, string(event.GetType()), event)
		if err != nil {
			e.logger.ErrorContext(ctx, "failed to publish event",
				"event_type", event.GetType(), "error", err)
		}
	}
}

// appendTimeline writes one audit row in the same transaction as the
// mutation it describes.
func appendTimeline(ctx context.Context, tx persistence.Store, solicitation *models.Solicitation, tipo models.TimelineEventTipo, actorID, message string, at time.Time) error {
	return tx.AppendTimelineEvent(ctx, &models.TimelineEvent{
		SolicitationID: solicitation.ID,
		Status:         solicitation.Status,
		Message:        message,
		ActorID:        actorID,
		Tipo:           tipo,
		CreatedAt:      at,
	})
}
