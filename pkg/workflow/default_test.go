package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraph(t *testing.T) {
	graph := DefaultGraph("t-generico", "d-ti", "g-gestores")

	assert.Equal(t, "t-generico", graph.TypeID)
	assert.True(t, graph.Active)
	require.Len(t, graph.Nodes, 3)
	require.Len(t, graph.Edges, 2)

	entry := graph.EntryNode()
	require.NotNil(t, entry)
	assert.Equal(t, DefaultEntryKey, entry.Key)
	assert.True(t, entry.IsDepartment())

	gate := graph.NodeByKey(DefaultApprovalKey)
	require.NotNil(t, gate)
	assert.True(t, gate.IsApproval())
	assert.True(t, gate.HasApprovers())
}

func TestDefaultGraph_PassesValidation(t *testing.T) {
	graph := DefaultGraph("t-generico", "d-ti", "g-gestores")

	require.NoError(t, Validate(graph.Nodes, graph.Edges))
}
