package workflow

import (
	"time"

	"github.com/tramite-io/tramite/pkg/models"
)

// Default graph node keys. Types without a saved graph route through this
// deterministic single path so that a freshly registered request type is
// usable before anyone opens the graph editor.
const (
	DefaultEntryKey    = "entrada"
	DefaultApprovalKey = "aprovacao"
	DefaultEndKey      = "fim"
)

// DefaultGraph builds the fallback entry → approval → end workflow for a
// request type. The approval gate is decided by approverGroupID, normally the
// owning department's approver group. An empty group leaves the gate
// undecidable, so callers must supply one for any type expected to pass
// "aprovacao" on the default path.
func DefaultGraph(typeID, departmentID, approverGroupID string) *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:           "default-" + typeID,
		TypeID:       typeID,
		DepartmentID: departmentID,
		Active:       true,
		Nodes: []*models.StepNode{
			{
				Key:        DefaultEntryKey,
				Label:      "Entrada",
				Kind:       models.NodeKindDepartment,
				Order:      1,
				Department: &models.DepartmentStep{DepartmentID: departmentID},
			},
			{
				Key:      DefaultApprovalKey,
				Label:    "Aprovação",
				Kind:     models.NodeKindApproval,
				Order:    2,
				Approval: &models.ApprovalStep{ApproverGroupID: approverGroupID},
			},
			{
				Key:   DefaultEndKey,
				Label: "Encerrado",
				Kind:  models.NodeKindEnd,
				Order: 3,
			},
		},
		Edges: []*models.Transition{
			{ID: "default-1", From: DefaultEntryKey, To: DefaultApprovalKey},
			{ID: "default-2", From: DefaultApprovalKey, To: DefaultEndKey, Condition: models.ConditionApproved},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
