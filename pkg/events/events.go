// Package events defines the domain events published on the bus for every
// solicitation lifecycle change and for notification dispatch requests.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tramite-io/tramite/pkg/models"
)

type EventType string

// Bus topic.
const Topic = "tramite.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	SolicitationCreatedEvent   EventType = "solicitation.created"
	StepEnteredEvent           EventType = "solicitation.step.entered"
	ApprovalRequestedEvent     EventType = "solicitation.approval.requested"
	ApprovalDecidedEvent       EventType = "solicitation.approval.decided"
	SolicitationFinishedEvent  EventType = "solicitation.finished"
	SolicitationForwardedEvent EventType = "solicitation.forwarded"
	NotificationRequestedEvent EventType = "notification.requested"
)

// Event is implemented by every payload published on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	SolicitationID string         `json:"solicitation_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps identity and time onto an event envelope.
func NewBaseEvent(eventType EventType, solicitationID string) BaseEvent {
	return BaseEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		SolicitationID: solicitationID,
	}
}

type SolicitationCreated struct {
	BaseEvent

	Protocolo string `json:"protocolo"`
	TypeID    string `json:"type_id"`
	StepKey   string `json:"step_key"`
}

func (e SolicitationCreated) GetType() EventType { return SolicitationCreatedEvent }

type StepEntered struct {
	BaseEvent

	StepKey  string          `json:"step_key"`
	StepKind models.NodeKind `json:"step_kind"`
}

func (e StepEntered) GetType() EventType { return StepEnteredEvent }

type ApprovalRequested struct {
	BaseEvent

	StepKey     string   `json:"step_key"`
	ApproverIDs []string `json:"approver_ids"`
}

func (e ApprovalRequested) GetType() EventType { return ApprovalRequestedEvent }

type ApprovalDecided struct {
	BaseEvent

	StepKey    string          `json:"step_key"`
	ApproverID string          `json:"approver_id"`
	Decision   models.Decision `json:"decision"`
}

func (e ApprovalDecided) GetType() EventType { return ApprovalDecidedEvent }

type SolicitationFinished struct {
	BaseEvent

	Status models.SolicitationStatus `json:"status"`
}

func (e SolicitationFinished) GetType() EventType { return SolicitationFinishedEvent }

type SolicitationForwarded struct {
	BaseEvent

	ChildID        string `json:"child_id"`
	ChildProtocolo string `json:"child_protocolo"`
	ChildTypeID    string `json:"child_type_id"`
}

func (e SolicitationForwarded) GetType() EventType { return SolicitationForwardedEvent }

// NotificationRequested carries an already rendered message; the dispatcher
// only has to deliver it. Publishing happens after the owning transaction
// commits, so a failed delivery can never undo a transition.
type NotificationRequested struct {
	BaseEvent

	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func (e NotificationRequested) GetType() EventType { return NotificationRequestedEvent }
