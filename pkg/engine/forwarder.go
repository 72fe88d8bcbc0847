package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tramite-io/tramite/pkg/directory"
	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/otelhelper"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// finalizeLockTTL bounds how long a finalize lock can stay behind if a
// process dies mid-operation.
const finalizeLockTTL = 30 * time.Second

// ForwardResult carries both sides of a finalize-and-forward.
type ForwardResult struct {
	Source *models.Solicitation
	Child  *models.Solicitation
}

// FinalizeAndForward closes the source solicitation and atomically opens the
// linked child request in the destination department, copying payload fields
// through the type pair's mapping table and every attachment row by blob
// reference. Any failure rolls the whole operation back, including the
// source's status change.
func (e *Engine) FinalizeAndForward(ctx context.Context, sourceID string, extra map[string]string, actorID string) (*ForwardResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.finalize_and_forward",
		trace.WithAttributes(attribute.String(otelhelper.SolicitationIDKey, sourceID)))
	defer span.End()

	acquired, err := e.locker.Acquire(ctx, "finalize:"+sourceID, finalizeLockTTL)
	if err != nil {
		return nil, err
	}

	if !acquired {
		return nil, &StateError{
			SolicitationID: sourceID,
			Expected:       "no concurrent finalize in progress",
			Actual:         "another finalize is running",
		}
	}

	defer func() {
		if releaseErr := e.locker.Release(ctx, "finalize:"+sourceID); releaseErr != nil {
			e.logger.WarnContext(ctx, "failed to release finalize lock",
				"solicitation_id", sourceID, "error", releaseErr)
		}
	}()

	var (
		result  *ForwardResult
		pending []events.Event
	)

	for attempt := 0; attempt < maxProtocolAttempts; attempt++ {
		result, pending, err = e.forwardOnce(ctx, sourceID, extra, actorID)
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

	return result, nil
}

func (e *Engine) forwardOnce(ctx context.Context, sourceID string, extra map[string]string, actorID string) (*ForwardResult, []events.Event, error) {
	var (
		result  ForwardResult
		pending []events.Event
	)

	err := e.store.WithinTx(ctx, func(tx persistence.Store) error {
		source, err := tx.SolicitationByID(ctx, sourceID)
		if err != nil {
			return err
		}

		if source.Closed() {
			return &StateError{
				SolicitationID: sourceID,
				Expected:       "an open solicitation",
				Actual:         string(source.Status),
			}
		}

		sourceType, err := e.directory.TypeByID(ctx, source.TypeID)
		if err != nil {
			return &ConfigurationError{Lookup: "type", Key: source.TypeID, Err: err}
		}

		forwarding := ForwardingForType(sourceType.Code)
		if forwarding == nil {
			return fmt.Errorf("type %s: %w", sourceType.Code, ErrUnsupportedType)
		}

		err = validateRequiredFields(forwarding, source, extra)
		if err != nil {
			return err
		}

		destinationType, destinationDepartment, destinationCostCenter, err := e.resolveDestination(ctx, forwarding)
		if err != nil {
			return err
		}

		now := e.now()

		mergeExtraFields(source, extra)

		source.Status = models.StatusConcluida
		source.UpdatedAt = now

		err = tx.UpdateSolicitation(ctx, source)
		if err != nil {
			return err
		}

		err = appendTimeline(ctx, tx, source, models.TimelineTipoEncerramento, actorID,
			fmt.Sprintf("Solicitação finalizada e encaminhada para %s", destinationDepartment.Name), now)
		if err != nil {
			return err
		}

		pending = append(pending, events.SolicitationFinished{
			BaseEvent: events.NewBaseEvent(events.SolicitationFinishedEvent, source.ID),
			Status:    models.StatusConcluida,
		})

		child, childEvents, err := e.spawnChild(ctx, tx, source, forwarding, destinationType.ID, destinationDepartment.ID, destinationCostCenter.ID, now)
		if err != nil {
			return err
		}

		pending = append(pending, childEvents...)

		pending = append(pending, events.SolicitationForwarded{
			BaseEvent:      events.NewBaseEvent(events.SolicitationForwardedEvent, source.ID),
			ChildID:        child.ID,
			ChildProtocolo: child.Protocolo,
			ChildTypeID:    child.TypeID,
		})

		result.Source = source
		result.Child = child

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &result, pending, nil
}

// resolveDestination looks up the child's type, department and cost center by
// their well-known codes. A missing lookup is an operator-facing
// configuration error that aborts the transaction before anything is written.
func (e *Engine) resolveDestination(ctx context.Context, forwarding *Forwarding) (*directory.RequestType, *directory.Department, *directory.CostCenter, error) {
	destinationType, err := e.directory.TypeByCode(ctx, forwarding.DestinationTypeCode)
	if err != nil {
		return nil, nil, nil, &ConfigurationError{Lookup: "type", Key: forwarding.DestinationTypeCode, Err: err}
	}

	destinationDepartment, err := e.directory.DepartmentByCode(ctx, forwarding.DestinationDepartmentCode)
	if err != nil {
		return nil, nil, nil, &ConfigurationError{Lookup: "department", Key: forwarding.DestinationDepartmentCode, Err: err}
	}

	destinationCostCenter, err := e.directory.CostCenterByCode(ctx, forwarding.DestinationCostCenterCode)
	if err != nil {
		return nil, nil, nil, &ConfigurationError{Lookup: "cost center", Key: forwarding.DestinationCostCenterCode, Err: err}
	}

	return destinationType, destinationDepartment, destinationCostCenter, nil
}

// validateRequiredFields checks the per-type required fields in the caller's
// extra fields or the existing payload, naming the first missing one.
func validateRequiredFields(forwarding *Forwarding, source *models.Solicitation, extra map[string]string) error {
	for _, field := range forwarding.RequiredFields {
		if extra[field] != "" {
			continue
		}

		if source.Field(field) != "" {
			continue
		}

		return &ValidationError{Field: field}
	}

	return nil
}

// mergeExtraFields folds the caller's supplementary fields into the source
// payload before the mapping runs. Caller values win over existing ones.
func mergeExtraFields(source *models.Solicitation, extra map[string]string) {
	for field, value := range extra {
		if value != "" {
			source.SetField(field, value)
		}
	}
}

// spawnChild creates the linked child solicitation with the mapped payload,
// its own creation timeline entry and a copy of every source attachment row.
func (e *Engine) spawnChild(ctx context.Context, tx persistence.Store, source *models.Solicitation, forwarding *Forwarding, typeID, departmentID, costCenterID string, now time.Time) (*models.Solicitation, []events.Event, error) {
	payload := make(map[string]string, len(forwarding.Fields))

	for _, mapping := range forwarding.Fields {
		value := source.Field(mapping.Source)
		if value == "" {
			continue
		}

		if mapping.Transform != nil {
			value = mapping.Transform(value)
		}

		payload[mapping.Destination] = value
	}

	if forwarding.Defaults != nil {
		for field, value := range forwarding.Defaults(source) {
			if payload[field] == "" {
				payload[field] = value
			}
		}
	}

	child := &models.Solicitation{
		Protocolo:        e.newProtocolo(now),
		TypeID:           typeID,
		DepartmentID:     departmentID,
		CostCenterID:     costCenterID,
		SolicitanteID:    source.SolicitanteID,
		ParentID:         source.ID,
		Status:           models.StatusAberta,
		ApprovalStatus:   models.ApprovalAprovado,
		Payload:          payload,
		RequiresApproval: false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	childGraph, err := e.loadGraph(ctx, tx, typeID)
	if err != nil {
		return nil, nil, err
	}

	if entry := childGraph.EntryNode(); entry != nil {
		child.CurrentStepKey = entry.Key
	}

	err = tx.CreateSolicitation(ctx, child)
	if err != nil {
		return nil, nil, err
	}

	err = appendTimeline(ctx, tx, child, models.TimelineTipoSistema, "",
		fmt.Sprintf("Criada automaticamente a partir da solicitação %s", source.Protocolo), now)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := tx.AttachmentsBySolicitation(ctx, source.ID)
	if err != nil {
		return nil, nil, err
	}

	for _, attachment := range attachments {
		copied := attachment.CopyTo(child.ID)
		copied.CreatedAt = now

		err = tx.CreateAttachment(ctx, copied)
		if err != nil {
			return nil, nil, err
		}
	}

	pending := []events.Event{
		events.SolicitationCreated{
			BaseEvent: events.NewBaseEvent(events.SolicitationCreatedEvent, child.ID),
			Protocolo: child.Protocolo,
			TypeID:    child.TypeID,
			StepKey:   child.CurrentStepKey,
		},
	}

	if entry := childGraph.EntryNode(); entry != nil {
		if notification := e.notificationFor(ctx, child, entry, false); notification != nil {
			pending = append(pending, notification)
		}
	}

	return child, pending, nil
}
