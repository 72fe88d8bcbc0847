package models

import "time"

// SolicitationStatus is the lifecycle state of a request instance.
type SolicitationStatus string

const (
	StatusAberta              SolicitationStatus = "ABERTA"
	StatusAguardandoAprovacao SolicitationStatus = "AGUARDANDO_APROVACAO"
	StatusEmAtendimento       SolicitationStatus = "EM_ATENDIMENTO"
	StatusConcluida           SolicitationStatus = "CONCLUIDA"
	StatusCancelada           SolicitationStatus = "CANCELADA"
)

// ApprovalStatus is the state of a request at an approval gate. PENDENTE is
// the only non-terminal state; a decision is applied exactly once.
type ApprovalStatus string

const (
	ApprovalPendente  ApprovalStatus = "PENDENTE"
	ApprovalAprovado  ApprovalStatus = "APROVADO"
	ApprovalRejeitado ApprovalStatus = "REJEITADO"
	ApprovalNA        ApprovalStatus = "N/A"
)

// Decision is an approver's verdict on a pending approval.
type Decision string

const (
	DecisionAprovado  Decision = "APROVADO"
	DecisionRejeitado Decision = "REJEITADO"
)

// Solicitation is the business request moving through a workflow graph.
// Payload is the free-form field bag filled by forms along the way; spawned
// children reference their source through ParentID.
type Solicitation struct {
	ID               string             `json:"id"`
	Protocolo        string             `json:"protocolo"`
	TypeID           string             `json:"type_id"         validate:"required"`
	DepartmentID     string             `json:"department_id"   validate:"required"`
	CostCenterID     string             `json:"cost_center_id"  validate:"required"`
	SolicitanteID    string             `json:"solicitante_id"  validate:"required"`
	ParentID         string             `json:"parent_id,omitempty"`
	Status           SolicitationStatus `json:"status"`
	ApprovalStatus   ApprovalStatus     `json:"approval_status"`
	CurrentStepKey   string             `json:"current_step_key"`
	Payload          map[string]string  `json:"payload,omitempty"`
	RequiresApproval bool               `json:"requires_approval"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Closed reports whether the solicitation reached a terminal status. Closed
// solicitations reject any further advance or decision.
func (s *Solicitation) Closed() bool {
	return s.Status == StatusConcluida || s.Status == StatusCancelada
}

// Field returns a payload field, or the empty string when absent.
func (s *Solicitation) Field(name string) string {
	if s.Payload == nil {
		return ""
	}

	return s.Payload[name]
}

// SetField writes a payload field, allocating the bag on first use.
func (s *Solicitation) SetField(name, value string) {
	if s.Payload == nil {
		s.Payload = make(map[string]string)
	}

	s.Payload[name] = value
}
