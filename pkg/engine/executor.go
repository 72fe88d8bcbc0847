package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/otelhelper"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// protocol collisions are retried by re-running the whole unit of work with a
// fresh suffix.
const maxProtocolAttempts = 3

// CreateRequest opens a new solicitation against the active workflow of its
// type.
type CreateRequest struct {
	TypeID           string
	DepartmentID     string
	CostCenterID     string
	SolicitanteID    string
	Payload          map[string]string
	RequiresApproval bool
}

// Create opens a solicitation at the entry node of its type's graph, writes
// the creation timeline entry and, after commit, notifies the entry step's
// audience.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*models.Solicitation, error) {
	ctx, span := e.tracer.Start(ctx, "engine.create",
		trace.WithAttributes(attribute.String(otelhelper.TypeIDKey, req.TypeID)))
	defer span.End()

	var (
		solicitation *models.Solicitation
		pending      []events.Event
	)

	var err error

	for attempt := 0; attempt < maxProtocolAttempts; attempt++ {
		solicitation, pending, err = e.createOnce(ctx, req)
		if err == nil {
			break
		}

		if !errors.Is(err, persistence.ErrDuplicateProtocol) {
			otelhelper.SetError(span, err)

			return nil, err
		}
	}

	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	e.publish(ctx, pending)

	return solicitation, nil
}

func (e *Engine) createOnce(ctx context.Context, req CreateRequest) (*models.Solicitation, []events.Event, error) {
	now := e.now()

	solicitation := &models.Solicitation{
		Protocolo:        e.newProtocolo(now),
		TypeID:           req.TypeID,
		DepartmentID:     req.DepartmentID,
		CostCenterID:     req.CostCenterID,
		SolicitanteID:    req.SolicitanteID,
		Status:           models.StatusAberta,
		ApprovalStatus:   models.ApprovalNA,
		Payload:          req.Payload,
		RequiresApproval: req.RequiresApproval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var pending []events.Event

	err := e.store.WithinTx(ctx, func(tx persistence.Store) error {
		graph, err := e.loadGraph(ctx, tx, req.TypeID)
		if err != nil {
			return err
		}

		entry := graph.EntryNode()
		if entry == nil {
			return fmt.Errorf("workflow for type %s has no entry node", req.TypeID)
		}

		solicitation.CurrentStepKey = entry.Key

		err = tx.CreateSolicitation(ctx, solicitation)
		if err != nil {
			return err
		}

		err = appendTimeline(ctx, tx, solicitation, models.TimelineTipoCriacao, req.SolicitanteID,
			fmt.Sprintf("Solicitação %s aberta no passo %q", solicitation.Protocolo, entry.Label), now)
		if err != nil {
			return err
		}

		pending = append(pending, events.SolicitationCreated{
			BaseEvent: events.NewBaseEvent(events.SolicitationCreatedEvent, solicitation.ID),
			Protocolo: solicitation.Protocolo,
			TypeID:    solicitation.TypeID,
			StepKey:   entry.Key,
		})

		if notification := e.notificationFor(ctx, solicitation, entry, false); notification != nil {
			pending = append(pending, notification)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return solicitation, pending, nil
}

// Advance moves a solicitation along one outgoing edge of its current step.
// With a single outgoing edge the condition is ignored; with several, the
// condition selects the edge and its absence is an error. The whole move,
// including the timeline row and any approval-gate entry, is one unit of
// work.
func (e *Engine) Advance(ctx context.Context, solicitationID, condition, actorID string) (*models.Solicitation, error) {
	ctx, span := e.tracer.Start(ctx, "engine.advance",
		trace.WithAttributes(attribute.String(otelhelper.SolicitationIDKey, solicitationID)))
	defer span.End()

	var (
		solicitation *models.Solicitation
		pending      []events.Event
	)

	err := e.store.WithinTx(ctx, func(tx persistence.Store) error {
		var err error

		solicitation, err = tx.SolicitationByID(ctx, solicitationID)
		if err != nil {
			return err
		}

		if solicitation.Closed() {
			return &StateError{
				SolicitationID: solicitationID,
				Expected:       "an open solicitation",
				Actual:         string(solicitation.Status),
			}
		}

		graph, err := e.loadGraph(ctx, tx, solicitation.TypeID)
		if err != nil {
			return err
		}

		pending, err = e.advanceLocked(ctx, tx, graph, solicitation, condition, actorID)

		return err
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	e.publish(ctx, pending)

	return solicitation, nil
}

// advanceLocked performs the edge selection and node entry against an
// already locked solicitation. Callers own the transaction.
func (e *Engine) advanceLocked(ctx context.Context, tx persistence.Store, graph *models.Workflow, solicitation *models.Solicitation, condition, actorID string) ([]events.Event, error) {
	edges := graph.OutgoingEdges(solicitation.CurrentStepKey)
	if len(edges) == 0 {
		return nil, fmt.Errorf("step %q: %w", solicitation.CurrentStepKey, ErrNoOutgoingEdges)
	}

	edge, err := pickEdge(edges, condition, solicitation.CurrentStepKey)
	if err != nil {
		return nil, err
	}

	target := graph.NodeByKey(edge.To)
	if target == nil {
		return nil, fmt.Errorf("edge %q targets unknown node %q", edge.ID, edge.To)
	}

	return e.enterNode(ctx, tx, solicitation, target, edge, actorID)
}

// pickEdge selects the outgoing edge: a single edge is taken unconditionally;
// branching requires the caller to name a condition key.
func pickEdge(edges []*models.Transition, condition, stepKey string) (*models.Transition, error) {
	if len(edges) == 1 {
		return edges[0], nil
	}

	if condition != "" {
		for _, edge := range edges {
			if edge.Condition == condition {
				return edge, nil
			}
		}
	}

	conditions := make([]string, 0, len(edges))
	for _, edge := range edges {
		conditions = append(conditions, edge.Condition)
	}

	return nil, &AmbiguousTransitionError{StepKey: stepKey, Conditions: conditions}
}

// enterNode applies the state change of stepping onto a node, appends the
// timeline row and collects the events to publish after commit.
func (e *Engine) enterNode(ctx context.Context, tx persistence.Store, solicitation *models.Solicitation, node *models.StepNode, edge *models.Transition, actorID string) ([]events.Event, error) {
	now := e.now()
	solicitation.CurrentStepKey = node.Key
	solicitation.UpdatedAt = now

	var pending []events.Event

	switch node.Kind {
	case models.NodeKindDepartment:
		solicitation.Status = models.StatusEmAtendimento

		if err := appendTimeline(ctx, tx, solicitation, models.TimelineTipoMovimentacao, actorID,
			fmt.Sprintf("Solicitação encaminhada para %q", node.Label), now); err != nil {
			return nil, err
		}

		if notification := e.notificationFor(ctx, solicitation, node, false); notification != nil {
			pending = append(pending, notification)
		}

	case models.NodeKindApproval:
		approvalEvents, err := e.requestApproval(ctx, tx, solicitation, node, actorID, now)
		if err != nil {
			return nil, err
		}

		pending = append(pending, approvalEvents...)

	case models.NodeKindEnd:
		status := models.StatusConcluida
		if edge != nil && edge.Cancel {
			status = models.StatusCancelada
		}

		solicitation.Status = status

		if err := appendTimeline(ctx, tx, solicitation, models.TimelineTipoEncerramento, actorID,
			fmt.Sprintf("Solicitação encerrada com status %s", status), now); err != nil {
			return nil, err
		}

		pending = append(pending, events.SolicitationFinished{
			BaseEvent: events.NewBaseEvent(events.SolicitationFinishedEvent, solicitation.ID),
			Status:    status,
		})

		if notification := e.notificationFor(ctx, solicitation, node, false); notification != nil {
			pending = append(pending, notification)
		}
	}

	pending = append(pending, events.StepEntered{
		BaseEvent: events.NewBaseEvent(events.StepEnteredEvent, solicitation.ID),
		StepKey:   node.Key,
		StepKind:  node.Kind,
	})

	err := tx.UpdateSolicitation(ctx, solicitation)
	if err != nil {
		return nil, err
	}

	return pending, nil
}
