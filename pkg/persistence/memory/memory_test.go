package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/testutil"
)

func TestWorkflowRoundTrip(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	graph := testutil.LinearGraph("t-1", "d-rh", []string{"u1"})
	require.NoError(t, store.SaveWorkflow(ctx, graph))
	assert.NotEmpty(t, graph.ID)

	loaded, err := store.WorkflowByTypeID(ctx, "t-1")
	require.NoError(t, err)

	assert.Equal(t, graph.ID, loaded.ID)
	require.Len(t, loaded.Nodes, 3)
	require.Len(t, loaded.Edges, 2)
	assert.Equal(t, graph.Edges[1].Condition, loaded.Edges[1].Condition)

	// The stored graph is isolated from later mutations of the loaded copy.
	loaded.Nodes[0].Label = "mutated"
	reloaded, err := store.WorkflowByTypeID(ctx, "t-1")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", reloaded.Nodes[0].Label)
}

func TestWorkflowByTypeID_NotFound(t *testing.T) {
	store := NewPersistence()

	_, err := store.WorkflowByTypeID(context.Background(), "t-missing")

	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestCreateSolicitation_AssignsIDAndEnforcesProtocolUniqueness(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	first := &models.Solicitation{Protocolo: "RQ250114-0001", TypeID: "t-1"}
	require.NoError(t, store.CreateSolicitation(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.Solicitation{Protocolo: "RQ250114-0001", TypeID: "t-1"}
	err := store.CreateSolicitation(ctx, second)

	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDuplicateProtocol)
}

func TestSolicitationByID_NotFound(t *testing.T) {
	store := NewPersistence()

	_, err := store.SolicitationByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsSolicitationNotFound(err))
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx persistence.Store) error {
		solicitation := &models.Solicitation{Protocolo: "RQ250114-0002", TypeID: "t-1"}
		if err := tx.CreateSolicitation(ctx, solicitation); err != nil {
			return err
		}

		return tx.AppendTimelineEvent(ctx, &models.TimelineEvent{
			SolicitationID: solicitation.ID,
			Tipo:           models.TimelineTipoCriacao,
			Message:        "aberta",
		})
	})
	require.NoError(t, err)
}

func TestWithinTx_RollsBackEverythingOnError(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	seed := &models.Solicitation{Protocolo: "RQ250114-0003", TypeID: "t-1", Status: models.StatusAberta}
	require.NoError(t, store.CreateSolicitation(ctx, seed))

	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx persistence.Store) error {
		loaded, err := tx.SolicitationByID(ctx, seed.ID)
		if err != nil {
			return err
		}

		loaded.Status = models.StatusConcluida
		if err := tx.UpdateSolicitation(ctx, loaded); err != nil {
			return err
		}

		if err := tx.AppendTimelineEvent(ctx, &models.TimelineEvent{
			SolicitationID: loaded.ID,
			Tipo:           models.TimelineTipoEncerramento,
		}); err != nil {
			return err
		}

		child := &models.Solicitation{Protocolo: "RQ250114-0004", TypeID: "t-2", ParentID: loaded.ID}
		if err := tx.CreateSolicitation(ctx, child); err != nil {
			return err
		}

		return boom
	})

	require.ErrorIs(t, err, boom)

	reloaded, err := store.SolicitationByID(ctx, seed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAberta, reloaded.Status)

	timeline, err := store.TimelineBySolicitation(ctx, seed.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestAttachments_RoundTrip(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	attachment := &models.Attachment{
		SolicitationID: "s-1",
		FileName:       "contrato.pdf",
		BlobKey:        "blobs/contrato",
	}
	require.NoError(t, store.CreateAttachment(ctx, attachment))
	assert.NotEmpty(t, attachment.ID)

	attachments, err := store.AttachmentsBySolicitation(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "contrato.pdf", attachments[0].FileName)
}

func TestHealthCheckAndClose(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	require.NoError(t, store.HealthCheck(ctx))
	require.NoError(t, store.Close(ctx))
}
