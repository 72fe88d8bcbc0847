// Package web provides the HTTP surface for workflow management and the
// solicitation lifecycle.
package web

import (
	"github.com/tramite-io/tramite/pkg/models"
)

// SaveWorkflowRequest is the request body replacing a type's routing graph.
type SaveWorkflowRequest struct {
	DepartmentID string               `json:"department_id,omitempty"`
	Active       bool                 `json:"active"`
	Nodes        []*models.StepNode   `json:"nodes" validate:"required,min=1"`
	Edges        []*models.Transition `json:"edges"`
}

// CreateSolicitationRequest is the request body opening a new solicitation.
type CreateSolicitationRequest struct {
	TypeID           string            `json:"type_id"         validate:"required"`
	DepartmentID     string            `json:"department_id"   validate:"required"`
	CostCenterID     string            `json:"cost_center_id"  validate:"required"`
	SolicitanteID    string            `json:"solicitante_id"  validate:"required"`
	Payload          map[string]string `json:"payload,omitempty"`
	RequiresApproval bool              `json:"requires_approval"`
}

// AdvanceRequest moves a solicitation along one edge. Condition selects the
// edge when the current step branches.
type AdvanceRequest struct {
	Condition string `json:"condition,omitempty"`
	ActorID   string `json:"actor_id" validate:"required"`
}

// DecisionRequest is an approver's verdict on a pending gate.
type DecisionRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Decision   string `json:"decision"    validate:"required,oneof=APROVADO REJEITADO"`
	Condition  string `json:"condition,omitempty"`
}

// FinalizeRequest closes a solicitation and spawns its child request. Fields
// supplement the payload before the field mapping runs.
type FinalizeRequest struct {
	ActorID string            `json:"actor_id" validate:"required"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SolicitationResponse is the read model: the solicitation plus its audit
// timeline and attachment listing.
type SolicitationResponse struct {
	Solicitation *models.Solicitation    `json:"solicitation"`
	Timeline     []*models.TimelineEvent `json:"timeline"`
	Attachments  []*models.Attachment    `json:"attachments"`
}

// FinalizeResponse returns both sides of a finalize-and-forward.
type FinalizeResponse struct {
	Source *models.Solicitation `json:"source"`
	Child  *models.Solicitation `json:"child"`
}
