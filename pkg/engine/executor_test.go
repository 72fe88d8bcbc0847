package engine

import (
	"context"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/testutil"
)

var protocoloPattern = regexp.MustCompile(`^RQ\d{6}-\d{4}$`)

func TestNewProtocolo(t *testing.T) {
	now := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	protocolo := NewProtocolo(now, rng)

	assert.Regexp(t, protocoloPattern, protocolo)
	assert.Equal(t, "RQ250114", protocolo[:8])
}

func TestCreate_PlacesSolicitationAtEntryNode(t *testing.T) {
	h := newHarness(t)
	h.saveLinearGraph(t, "t-generico", "u-bruno")

	solicitation := h.create(t, "t-generico", map[string]string{"descricao": "notebook novo"})

	assert.Regexp(t, protocoloPattern, solicitation.Protocolo)
	assert.Equal(t, "triagem", solicitation.CurrentStepKey)
	assert.Equal(t, models.StatusAberta, solicitation.Status)
	assert.Equal(t, models.ApprovalNA, solicitation.ApprovalStatus)

	timeline, err := h.store.TimelineBySolicitation(context.Background(), solicitation.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, models.TimelineTipoCriacao, timeline[0].Tipo)
	assert.Contains(t, timeline[0].Message, solicitation.Protocolo)

	created := h.bus.byType(events.SolicitationCreatedEvent)
	require.Len(t, created, 1)
}

func TestCreate_ConcurrentCreatesShareTheGenerator(t *testing.T) {
	h := newHarness(t)
	h.saveLinearGraph(t, "t-generico", "u-bruno")

	const callers = 8

	var wg sync.WaitGroup

	results := make([]*models.Solicitation, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i], errs[i] = h.engine.Create(context.Background(), CreateRequest{
				TypeID:        "t-generico",
				DepartmentID:  "d-rh",
				CostCenterID:  "cc-1",
				SolicitanteID: "u-ana",
			})
		}(i)
	}

	wg.Wait()

	seen := make(map[string]bool, callers)

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Regexp(t, protocoloPattern, results[i].Protocolo)
		assert.False(t, seen[results[i].Protocolo])
		seen[results[i].Protocolo] = true
	}
}

func TestCreate_FallsBackToDefaultGraph(t *testing.T) {
	h := newHarness(t)

	// No graph saved for the type; the deterministic default applies.
	solicitation := h.create(t, "t-generico", nil)

	assert.Equal(t, "entrada", solicitation.CurrentStepKey)
	assert.Equal(t, models.StatusAberta, solicitation.Status)
}

func TestCreate_UnknownTypeFailsConfiguration(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Create(context.Background(), CreateRequest{
		TypeID:        "t-inexistente",
		DepartmentID:  "d-rh",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
	})

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestAdvance_MovesToApprovalGate(t *testing.T) {
	h := newHarness(t)
	h.saveLinearGraph(t, "t-generico", "u-bruno")
	solicitation := h.create(t, "t-generico", nil)

	advanced, err := h.engine.Advance(context.Background(), solicitation.ID, "", "u-ana")
	require.NoError(t, err)

	assert.Equal(t, "aprovacao", advanced.CurrentStepKey)
	assert.Equal(t, models.StatusAguardandoAprovacao, advanced.Status)
	assert.Equal(t, models.ApprovalPendente, advanced.ApprovalStatus)

	requested := h.bus.byType(events.ApprovalRequestedEvent)
	require.Len(t, requested, 1)
}

func TestAdvance_ClosedSolicitationRejected(t *testing.T) {
	h := newHarness(t)
	h.saveLinearGraph(t, "t-generico", "u-bruno")
	solicitation := h.create(t, "t-generico", nil)

	_, err := h.engine.Advance(context.Background(), solicitation.ID, "", "u-ana")
	require.NoError(t, err)
	_, err = h.engine.Decide(context.Background(), solicitation.ID, "u-bruno", models.DecisionAprovado, "")
	require.NoError(t, err)

	_, err = h.engine.Advance(context.Background(), solicitation.ID, "", "u-ana")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAdvance_BranchingWithoutConditionIsAmbiguous(t *testing.T) {
	h := newHarness(t)

	graph := &models.Workflow{
		TypeID: "t-generico",
		Active: true,
		Nodes: []*models.StepNode{
			testutil.DepartmentNode("triagem", "d-rh"),
			testutil.DepartmentNode("compras", "d-ti"),
			testutil.EndNode("fim"),
		},
		Edges: []*models.Transition{
			testutil.Edge("e1", "triagem", "compras", "comprar"),
			testutil.Edge("e2", "triagem", "fim", "arquivar"),
			testutil.Edge("e3", "compras", "fim", ""),
		},
	}
	require.NoError(t, h.store.SaveWorkflow(context.Background(), graph))

	solicitation := h.create(t, "t-generico", nil)

	_, err := h.engine.Advance(context.Background(), solicitation.ID, "", "u-ana")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousTransition)

	var ambiguous *AmbiguousTransitionError
	require.ErrorAs(t, err, &ambiguous)
	assert.ElementsMatch(t, []string{"comprar", "arquivar"}, ambiguous.Conditions)

	// The failed advance left the solicitation where it was.
	reloaded, err := h.store.SolicitationByID(context.Background(), solicitation.ID)
	require.NoError(t, err)
	assert.Equal(t, "triagem", reloaded.CurrentStepKey)
	assert.Equal(t, models.StatusAberta, reloaded.Status)
}

func TestAdvance_ConditionSelectsBranch(t *testing.T) {
	h := newHarness(t)

	graph := &models.Workflow{
		TypeID: "t-generico",
		Active: true,
		Nodes: []*models.StepNode{
			testutil.DepartmentNode("triagem", "d-rh"),
			testutil.DepartmentNode("compras", "d-ti"),
			testutil.EndNode("fim"),
		},
		Edges: []*models.Transition{
			testutil.Edge("e1", "triagem", "compras", "comprar"),
			testutil.Edge("e2", "triagem", "fim", "arquivar"),
			testutil.Edge("e3", "compras", "fim", ""),
		},
	}
	require.NoError(t, h.store.SaveWorkflow(context.Background(), graph))

	solicitation := h.create(t, "t-generico", nil)

	advanced, err := h.engine.Advance(context.Background(), solicitation.ID, "comprar", "u-ana")
	require.NoError(t, err)

	assert.Equal(t, "compras", advanced.CurrentStepKey)
	assert.Equal(t, models.StatusEmAtendimento, advanced.Status)
}

func TestAdvance_CancelEdgeClosesAsCancelada(t *testing.T) {
	h := newHarness(t)

	graph := &models.Workflow{
		TypeID: "t-generico",
		Active: true,
		Nodes: []*models.StepNode{
			testutil.DepartmentNode("triagem", "d-rh"),
			testutil.EndNode("fim"),
		},
		Edges: []*models.Transition{
			testutil.Edge("e1", "triagem", "fim", "arquivar"),
			testutil.CancelEdge("e2", "triagem", "fim", "cancelar"),
		},
	}
	require.NoError(t, h.store.SaveWorkflow(context.Background(), graph))

	solicitation := h.create(t, "t-generico", nil)

	closed, err := h.engine.Advance(context.Background(), solicitation.ID, "cancelar", "u-ana")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelada, closed.Status)
	assert.True(t, closed.Closed())

	finished := h.bus.byType(events.SolicitationFinishedEvent)
	require.Len(t, finished, 1)
	assert.Equal(t, models.StatusCancelada, finished[0].(events.SolicitationFinished).Status)
}
