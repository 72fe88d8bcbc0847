// Package testutil provides test data builders shared across packages.
package testutil

import (
	"github.com/tramite-io/tramite/pkg/directory"
	"github.com/tramite-io/tramite/pkg/models"
)

// DepartmentNode creates a DEPARTMENT step node with overridable defaults.
func DepartmentNode(key, departmentID string, overrides ...func(*models.StepNode)) *models.StepNode {
	node := &models.StepNode{
		Key:        key,
		Label:      "Departamento " + departmentID,
		Kind:       models.NodeKindDepartment,
		Department: &models.DepartmentStep{DepartmentID: departmentID},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// ApprovalNode creates an APPROVAL step node with the given approver users.
func ApprovalNode(key string, approverIDs []string, overrides ...func(*models.StepNode)) *models.StepNode {
	node := &models.StepNode{
		Key:      key,
		Label:    "Aprovação",
		Kind:     models.NodeKindApproval,
		Approval: &models.ApprovalStep{ApproverUserIDs: approverIDs},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// EndNode creates an END step node.
func EndNode(key string, overrides ...func(*models.StepNode)) *models.StepNode {
	node := &models.StepNode{
		Key:   key,
		Label: "Encerramento",
		Kind:  models.NodeKindEnd,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.StepNode) {
	return func(n *models.StepNode) {
		n.Label = label
	}
}

// WithEmails sets the node's extra notification addresses.
func WithEmails(emails ...string) func(*models.StepNode) {
	return func(n *models.StepNode) {
		n.NotificationEmails = emails
	}
}

// WithApproverGroup points the approval gate at a directory group.
func WithApproverGroup(groupID string) func(*models.StepNode) {
	return func(n *models.StepNode) {
		n.Approval = &models.ApprovalStep{ApproverGroupID: groupID}
	}
}

// Edge creates a transition between two node keys.
func Edge(id, from, to, condition string) *models.Transition {
	return &models.Transition{ID: id, From: from, To: to, Condition: condition}
}

// CancelEdge creates a transition that closes the request as CANCELADA when
// it reaches an END node.
func CancelEdge(id, from, to, condition string) *models.Transition {
	return &models.Transition{ID: id, From: from, To: to, Condition: condition, Cancel: true}
}

// LinearGraph builds the common three-step graph: a department step, an
// approval gate and an end node, wired in sequence.
func LinearGraph(typeID, departmentID string, approverIDs []string) *models.Workflow {
	return &models.Workflow{
		TypeID:       typeID,
		DepartmentID: departmentID,
		Active:       true,
		Nodes: []*models.StepNode{
			DepartmentNode("triagem", departmentID),
			ApprovalNode("aprovacao", approverIDs),
			EndNode("fim"),
		},
		Edges: []*models.Transition{
			Edge("e1", "triagem", "aprovacao", ""),
			Edge("e2", "aprovacao", "fim", models.ConditionApproved),
		},
	}
}

// TestDirectory builds a small organizational directory covering the
// departments, cost centers and request types the engine tests exercise.
func TestDirectory() *directory.Static {
	return &directory.Static{
		UserEntries: []*directory.User{
			{ID: "u-ana", Name: "Ana Souza", Email: "ana@example.com", Active: true, DepartmentID: "d-ti"},
			{ID: "u-bruno", Name: "Bruno Lima", Email: "bruno@example.com", Active: true, DepartmentID: "d-rh", GroupIDs: []string{"g-gestores"}},
			{ID: "u-carla", Name: "Carla Dias", Email: "carla@example.com", Active: true, DepartmentID: "d-dp", GroupIDs: []string{"g-gestores"}},
			{ID: "u-inativo", Name: "Inativo", Email: "inativo@example.com", Active: false, DepartmentID: "d-rh"},
		},
		DepartmentEntries: []*directory.Department{
			{ID: "d-ti", Code: "TI", Name: "Tecnologia", Active: true, ApproverGroupID: "g-gestores"},
			{ID: "d-rh", Code: "RH", Name: "Recursos Humanos", Active: true, ApproverGroupID: "g-gestores"},
			{ID: "d-dp", Code: "DP", Name: "Departamento Pessoal", Active: true, ApproverGroupID: "g-gestores"},
		},
		CostCenterEntries: []*directory.CostCenter{
			{ID: "cc-1", Code: "CC-TI", Name: "Tecnologia"},
			{ID: "cc-dp", Code: "CC-DP", Name: "Departamento Pessoal"},
		},
		TypeEntries: []*directory.RequestType{
			{ID: "t-rq063", Code: "RQ_063", Name: "Requisição de Pessoal", DepartmentID: "d-rh"},
			{ID: "t-rq076", Code: "RQ_076", Name: "Admissão", DepartmentID: "d-dp"},
			{ID: "t-rq091", Code: "RQ_091", Name: "Incentivo Educação", DepartmentID: "d-rh"},
			{ID: "t-rq092", Code: "RQ_092", Name: "Lançamento em Folha", DepartmentID: "d-dp"},
			{ID: "t-generico", Code: "RQ_001", Name: "Solicitação Genérica", DepartmentID: "d-ti"},
		},
	}
}
