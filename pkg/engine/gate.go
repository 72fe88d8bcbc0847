package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/otelhelper"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// requestApproval puts a solicitation into the approval gate: pending
// approval status, waiting lifecycle status, a timeline row and the
// approval-template notification to the resolved approvers. Runs inside the
// caller's transaction.
func (e *Engine) requestApproval(ctx context.Context, tx persistence.Store, solicitation *models.Solicitation, node *models.StepNode, actorID string, now time.Time) ([]events.Event, error) {
	solicitation.ApprovalStatus = models.ApprovalPendente
	solicitation.Status = models.StatusAguardandoAprovacao
	solicitation.UpdatedAt = now

	err := appendTimeline(ctx, tx, solicitation, models.TimelineTipoAprovacao, actorID,
		fmt.Sprintf("Aguardando aprovação no passo %q", node.Label), now)
	if err != nil {
		return nil, err
	}

	approvers, err := e.recipients.Approvers(ctx, node)
	if err != nil {
		return nil, err
	}

	approverIDs := make([]string, 0, len(approvers))
	for _, approver := range approvers {
		approverIDs = append(approverIDs, approver.ID)
	}

	pending := []events.Event{
		events.ApprovalRequested{
			BaseEvent:   events.NewBaseEvent(events.ApprovalRequestedEvent, solicitation.ID),
			StepKey:     node.Key,
			ApproverIDs: approverIDs,
		},
	}

	if notification := e.notificationFor(ctx, solicitation, node, true); notification != nil {
		pending = append(pending, notification)
	}

	return pending, nil
}

// Decide applies an approver's verdict on a pending approval gate. The first
// decision wins: a second call observes a non-pending status and fails with
// ErrInvalidState instead of advancing the solicitation twice. On approval
// the solicitation follows the "approved" edge (condition may further
// disambiguate extra branches); on rejection it follows a dedicated
// "rejected" edge when the graph has one, otherwise it returns to the entry
// node for correction.
func (e *Engine) Decide(ctx context.Context, solicitationID, approverID string, decision models.Decision, condition string) (*models.Solicitation, error) {
	ctx, span := e.tracer.Start(ctx, "engine.decide",
		trace.WithAttributes(
			attribute.String(otelhelper.SolicitationIDKey, solicitationID),
			attribute.String(otelhelper.DecisionKey, string(decision)),
		))
	defer span.End()

	if decision != models.DecisionAprovado && decision != models.DecisionRejeitado {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

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

		node := graph.NodeByKey(solicitation.CurrentStepKey)
		if node == nil || !node.IsApproval() {
			return &StateError{
				SolicitationID: solicitationID,
				Expected:       "an approval step",
				Actual:         fmt.Sprintf("step %q", solicitation.CurrentStepKey),
			}
		}

		if solicitation.ApprovalStatus != models.ApprovalPendente {
			return &StateError{
				SolicitationID: solicitationID,
				Expected:       string(models.ApprovalPendente),
				Actual:         string(solicitation.ApprovalStatus),
			}
		}

		err = e.checkApprover(ctx, node, approverID)
		if err != nil {
			return err
		}

		now := e.now()

		if decision == models.DecisionAprovado {
			solicitation.ApprovalStatus = models.ApprovalAprovado
		} else {
			solicitation.ApprovalStatus = models.ApprovalRejeitado
		}

		solicitation.UpdatedAt = now

		err = appendTimeline(ctx, tx, solicitation, models.TimelineTipoAprovacao, approverID,
			fmt.Sprintf("Aprovação decidida: %s", decision), now)
		if err != nil {
			return err
		}

		pending = append(pending, events.ApprovalDecided{
			BaseEvent:  events.NewBaseEvent(events.ApprovalDecidedEvent, solicitation.ID),
			StepKey:    node.Key,
			ApproverID: approverID,
			Decision:   decision,
		})

		moveEvents, err := e.advanceAfterDecision(ctx, tx, graph, solicitation, decision, condition, approverID)
		if err != nil {
			return err
		}

		pending = append(pending, moveEvents...)

		return nil
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	e.publish(ctx, pending)

	return solicitation, nil
}

// checkApprover validates membership in the resolved approver set.
func (e *Engine) checkApprover(ctx context.Context, node *models.StepNode, approverID string) error {
	approvers, err := e.recipients.Approvers(ctx, node)
	if err != nil {
		return err
	}

	for _, approver := range approvers {
		if approver.ID == approverID {
			return nil
		}
	}

	return fmt.Errorf("user %q on step %q: %w", approverID, node.Key, ErrForbidden)
}

// advanceAfterDecision routes the solicitation out of the gate. Approval
// follows the approved edge; rejection follows a rejected edge when
// configured, else falls back to the entry node.
func (e *Engine) advanceAfterDecision(ctx context.Context, tx persistence.Store, graph *models.Workflow, solicitation *models.Solicitation, decision models.Decision, condition, actorID string) ([]events.Event, error) {
	edges := graph.OutgoingEdges(solicitation.CurrentStepKey)

	decisionCondition := models.ConditionApproved
	if decision == models.DecisionRejeitado {
		decisionCondition = models.ConditionRejected
	}

	for _, edge := range edges {
		if edge.Condition == decisionCondition {
			target := graph.NodeByKey(edge.To)
			if target == nil {
				return nil, fmt.Errorf("edge %q targets unknown node %q", edge.ID, edge.To)
			}

			return e.enterNode(ctx, tx, solicitation, target, edge, actorID)
		}
	}

	if decision == models.DecisionRejeitado {
		// No dedicated rejection edge: return to the entry node for correction.
		entry := graph.EntryNode()
		if entry == nil {
			return nil, fmt.Errorf("workflow for type %s has no entry node", solicitation.TypeID)
		}

		return e.enterNode(ctx, tx, solicitation, entry, nil, actorID)
	}

	return e.advanceLocked(ctx, tx, graph, solicitation, condition, actorID)
}
