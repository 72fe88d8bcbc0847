package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/engine"
	"github.com/tramite-io/tramite/pkg/eventbus"
	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence/memory"
	"github.com/tramite-io/tramite/pkg/recipients"
	"github.com/tramite-io/tramite/pkg/testutil"
	"github.com/tramite-io/tramite/pkg/web"
)

type nopBus struct{}

func (nopBus) Publish(context.Context, string, events.Event) error { return nil }
func (nopBus) Handle(events.EventType, eventbus.EventHandler)      {}
func (nopBus) Subscribe(context.Context) error                     { return nil }
func (nopBus) GenerateID() string                                  { return "test" }
func (nopBus) Close() error                                        { return nil }

func setupTestApp(t *testing.T) (*fiber.App, *memory.Persistence) {
	t.Helper()

	store := memory.NewPersistence()
	dir := testutil.TestDirectory()

	eng := engine.New(engine.Config{
		Persistence: store,
		Directory:   dir,
		Recipients:  recipients.NewResolver(dir, nil),
		EventBus:    nopBus{},
		BaseURL:     "http://tramite.local",
	})

	handlers := web.NewAPIHandlers(eng, store, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/:typeId", handlers.GetWorkflow)
	w.Put("/:typeId", handlers.SaveWorkflow)

	s := app.Group("/solicitations")
	s.Post("/", handlers.CreateSolicitation)
	s.Get("/:id", handlers.GetSolicitation)
	s.Post("/:id/advance", handlers.AdvanceSolicitation)
	s.Post("/:id/decision", handlers.DecideSolicitation)
	s.Post("/:id/finalize", handlers.FinalizeSolicitation)

	app.Get("/health", handlers.HealthCheck)

	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body []byte

	if str, ok := payload.(string); ok {
		body = []byte(str)
	} else if payload != nil {
		var err error

		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, raw
}

func TestSaveAndGetWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	graph := testutil.LinearGraph("t-generico", "d-rh", []string{"u-bruno"})

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/t-generico", web.SaveWorkflowRequest{
		DepartmentID: graph.DepartmentID,
		Active:       true,
		Nodes:        graph.Nodes,
		Edges:        graph.Edges,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/t-generico", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded models.Workflow
	require.NoError(t, json.Unmarshal(body, &loaded))
	assert.Equal(t, "t-generico", loaded.TypeID)
	assert.Len(t, loaded.Nodes, 3)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/t-missing", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveWorkflow_InvalidGraphRejected(t *testing.T) {
	app, store := setupTestApp(t)

	// Approval gate without approvers fails validation; nothing is saved.
	resp, body := doJSON(t, app, http.MethodPut, "/workflows/t-generico", web.SaveWorkflowRequest{
		Active: true,
		Nodes: []*models.StepNode{
			testutil.DepartmentNode("triagem", "d-rh"),
			{Key: "aprovacao", Label: "Aprovação", Kind: models.NodeKindApproval},
			testutil.EndNode("fim"),
		},
		Edges: []*models.Transition{
			testutil.Edge("e1", "triagem", "aprovacao", ""),
			testutil.Edge("e2", "aprovacao", "fim", models.ConditionApproved),
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "aprovacao")

	_, err := store.WorkflowByTypeID(context.Background(), "t-generico")
	require.Error(t, err)
}

func TestSaveWorkflow_CyclicGraphRejected(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/t-generico", web.SaveWorkflowRequest{
		Active: true,
		Nodes: []*models.StepNode{
			testutil.DepartmentNode("a", "d-rh"),
			testutil.DepartmentNode("b", "d-ti"),
			testutil.EndNode("fim"),
		},
		Edges: []*models.Transition{
			testutil.Edge("e1", "a", "b", ""),
			testutil.Edge("e2", "b", "a", "volta"),
			testutil.Edge("e3", "b", "fim", "segue"),
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateSolicitation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/solicitations/", web.CreateSolicitationRequest{
		TypeID:        "t-generico",
		DepartmentID:  "d-ti",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
		Payload:       map[string]string{"descricao": "acesso ao sistema"},
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var solicitation models.Solicitation
	require.NoError(t, json.Unmarshal(body, &solicitation))
	assert.Regexp(t, `^RQ\d{6}-\d{4}$`, solicitation.Protocolo)
	assert.Equal(t, models.StatusAberta, solicitation.Status)
	assert.NotEmpty(t, solicitation.ID)
}

func TestCreateSolicitation_MissingFields(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/solicitations/", web.CreateSolicitationRequest{
		TypeID: "t-generico",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSolicitation_InvalidJSON(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/solicitations/", "not-json")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSolicitation_WithTimeline(t *testing.T) {
	app, _ := setupTestApp(t)

	_, body := doJSON(t, app, http.MethodPost, "/solicitations/", web.CreateSolicitationRequest{
		TypeID:        "t-generico",
		DepartmentID:  "d-ti",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
	})

	var created models.Solicitation
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body := doJSON(t, app, http.MethodGet, "/solicitations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var read web.SolicitationResponse
	require.NoError(t, json.Unmarshal(body, &read))
	assert.Equal(t, created.ID, read.Solicitation.ID)
	require.Len(t, read.Timeline, 1)
	assert.Equal(t, models.TimelineTipoCriacao, read.Timeline[0].Tipo)
}

func TestDecideSolicitation_Forbidden(t *testing.T) {
	app, store := setupTestApp(t)

	graph := testutil.LinearGraph("t-generico", "d-rh", []string{"u-bruno"})
	require.NoError(t, store.SaveWorkflow(context.Background(), graph))

	_, body := doJSON(t, app, http.MethodPost, "/solicitations/", web.CreateSolicitationRequest{
		TypeID:        "t-generico",
		DepartmentID:  "d-rh",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
	})

	var created models.Solicitation
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ := doJSON(t, app, http.MethodPost, "/solicitations/"+created.ID+"/advance", web.AdvanceRequest{ActorID: "u-ana"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/solicitations/"+created.ID+"/decision", web.DecisionRequest{
		ApproverID: "u-ana",
		Decision:   "APROVADO",
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDecideSolicitation_InvalidDecisionValue(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/solicitations/any/decision", web.DecisionRequest{
		ApproverID: "u-bruno",
		Decision:   "TALVEZ",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFinalizeSolicitation_FlowAndConflicts(t *testing.T) {
	app, _ := setupTestApp(t)

	_, body := doJSON(t, app, http.MethodPost, "/solicitations/", web.CreateSolicitationRequest{
		TypeID:        "t-rq063",
		DepartmentID:  "d-rh",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
		Payload:       map[string]string{"cargo": "Analista", "candidato": "Paula"},
	})

	var created models.Solicitation
	require.NoError(t, json.Unmarshal(body, &created))

	// Missing required field is a 400 naming the field.
	resp, body := doJSON(t, app, http.MethodPost, "/solicitations/"+created.ID+"/finalize", web.FinalizeRequest{
		ActorID: "u-bruno",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "salario")

	resp, body = doJSON(t, app, http.MethodPost, "/solicitations/"+created.ID+"/finalize", web.FinalizeRequest{
		ActorID: "u-bruno",
		Fields:  map[string]string{"salario": "9000.00", "data_admissao": "2025-02-01"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.FinalizeResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, models.StatusConcluida, result.Source.Status)
	assert.Equal(t, created.ID, result.Child.ParentID)

	// A repeated finalize is a conflict, not a second child.
	resp, _ = doJSON(t, app, http.MethodPost, "/solicitations/"+created.ID+"/finalize", web.FinalizeRequest{
		ActorID: "u-bruno",
		Fields:  map[string]string{"salario": "9000.00", "data_admissao": "2025-02-01"},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}
