package models

import "time"

// TimelineEventTipo classifies a timeline entry.
type TimelineEventTipo string

const (
	TimelineTipoCriacao      TimelineEventTipo = "CRIACAO"
	TimelineTipoMovimentacao TimelineEventTipo = "MOVIMENTACAO"
	TimelineTipoAprovacao    TimelineEventTipo = "APROVACAO"
	TimelineTipoEncerramento TimelineEventTipo = "ENCERRAMENTO"
	TimelineTipoSistema      TimelineEventTipo = "SISTEMA"
)

// TimelineEvent is one append-only audit entry of a solicitation's lifecycle.
// Entries are written in the same transaction as the mutation they describe
// and are never updated afterwards.
type TimelineEvent struct {
	ID             string             `json:"id"`
	SolicitationID string             `json:"solicitation_id"`
	Status         SolicitationStatus `json:"status"`
	Message        string             `json:"message"`
	ActorID        string             `json:"actor_id,omitempty"`
	Tipo           TimelineEventTipo  `json:"tipo"`
	CreatedAt      time.Time          `json:"created_at"`
}
