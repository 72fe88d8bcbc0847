package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/testutil"
)

func validGraph() ([]*models.StepNode, []*models.Transition) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("triagem", "d-rh"),
		testutil.ApprovalNode("aprovacao", []string{"u1"}),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "triagem", "aprovacao", ""),
		testutil.Edge("e2", "aprovacao", "fim", models.ConditionApproved),
	}

	return nodes, edges
}

func TestValidate_ValidGraph(t *testing.T) {
	nodes, edges := validGraph()

	require.NoError(t, Validate(nodes, edges))
}

func TestValidate_NoEntryNode(t *testing.T) {
	// Two nodes feeding each other, nothing with in-degree zero.
	nodes := []*models.StepNode{
		testutil.DepartmentNode("a", "d-rh"),
		testutil.DepartmentNode("b", "d-rh"),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "a", "b", ""),
		testutil.Edge("e2", "b", "a", ""),
		testutil.Edge("e3", "fim", "a", ""),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntryNode)
	assert.True(t, IsStructureError(err))
}

func TestValidate_MultipleEntryNodes(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("a", "d-rh"),
		testutil.DepartmentNode("b", "d-rh"),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "a", "fim", ""),
		testutil.Edge("e2", "b", "fim", ""),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleEntryNodes)
}

func TestValidate_UnknownEdgeReference(t *testing.T) {
	nodes, edges := validGraph()
	edges = append(edges, testutil.Edge("e3", "aprovacao", "fantasma", ""))

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeRef)
	assert.Contains(t, err.Error(), "e3")
}

func TestValidate_DuplicateNodeKey(t *testing.T) {
	nodes, edges := validGraph()
	nodes = append(nodes, testutil.DepartmentNode("triagem", "d-ti"))

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNodeKey)
}

func TestValidate_UnreachableNode(t *testing.T) {
	// A two-node island feeding itself: every island node has incoming edges,
	// so the entry stays unique but the island is unreachable from it.
	nodes, edges := validGraph()
	nodes = append(nodes,
		testutil.DepartmentNode("ilha-a", "d-ti"),
		testutil.DepartmentNode("ilha-b", "d-ti"),
	)
	edges = append(edges,
		testutil.Edge("e3", "ilha-a", "ilha-b", ""),
		testutil.Edge("e4", "ilha-b", "ilha-a", ""),
	)

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachableNode)
}

func TestValidate_CycleRejected(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("a", "d-rh"),
		testutil.ApprovalNode("b", []string{"u1"}),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "a", "b", ""),
		testutil.Edge("e2", "b", "fim", models.ConditionApproved),
		testutil.Edge("e3", "b", "a", models.ConditionRejected),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphCycle)

	var cycleErr *GraphCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.NotEmpty(t, cycleErr.NodeKey)
}

func TestValidate_ApprovalWithoutApprovers(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("triagem", "d-rh"),
		{Key: "aprovacao", Label: "Aprovação", Kind: models.NodeKindApproval, Approval: &models.ApprovalStep{}},
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "triagem", "aprovacao", ""),
		testutil.Edge("e2", "aprovacao", "fim", models.ConditionApproved),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrApproverRequired)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "aprovacao")
}

func TestValidate_ApprovalWithGroupOnly(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("triagem", "d-rh"),
		testutil.ApprovalNode("aprovacao", nil, testutil.WithApproverGroup("g-gestores")),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "triagem", "aprovacao", ""),
		testutil.Edge("e2", "aprovacao", "fim", models.ConditionApproved),
	}

	require.NoError(t, Validate(nodes, edges))
}

func TestValidate_DepartmentWithoutReference(t *testing.T) {
	nodes := []*models.StepNode{
		{Key: "triagem", Label: "Triagem", Kind: models.NodeKindDepartment},
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "triagem", "fim", ""),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDepartmentRequired)
}

func TestValidate_NoEndNode(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("a", "d-rh"),
		testutil.DepartmentNode("b", "d-ti"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "a", "b", ""),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEndNode)
}

func TestValidate_DeadEndNode(t *testing.T) {
	nodes := []*models.StepNode{
		testutil.DepartmentNode("a", "d-rh"),
		testutil.DepartmentNode("beco", "d-ti"),
		testutil.EndNode("fim"),
	}
	edges := []*models.Transition{
		testutil.Edge("e1", "a", "fim", ""),
		testutil.Edge("e2", "a", "beco", "desvio"),
	}

	err := Validate(nodes, edges)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadEnd)
	assert.Contains(t, err.Error(), "beco")
}
