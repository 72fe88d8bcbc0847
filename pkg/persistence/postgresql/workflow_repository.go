package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// WorkflowRepository handles routing graph rows. Nodes and edges are stored
// as JSONB documents because graphs are replaced as a whole, never patched.
type WorkflowRepository struct {
	db     querier
	logger *slog.Logger
}

// NewWorkflowRepository creates a workflow repository bound to a database
// handle or an open transaction.
func NewWorkflowRepository(db querier, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Save upserts the graph for the workflow's type, replacing any previous
// node/edge set.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return &persistence.WorkflowError{Op: "Save", TypeID: workflow.TypeID, Err: err}
	}

	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return &persistence.WorkflowError{Op: "Save", TypeID: workflow.TypeID, Err: err}
	}

	query := `
		INSERT INTO workflows (id, type_id, department_id, active, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (type_id) DO UPDATE SET
			department_id = EXCLUDED.department_id
		  , active = EXCLUDED.active
		  , nodes = EXCLUDED.nodes
		  , edges = EXCLUDED.edges
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.TypeID,
		nullableString(workflow.DepartmentID),
		workflow.Active,
		nodes,
		edges,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return &persistence.WorkflowError{Op: "Save", TypeID: workflow.TypeID, Err: err}
	}

	return nil
}

// ByTypeID returns the saved graph for a request type.
func (r *WorkflowRepository) ByTypeID(ctx context.Context, typeID string) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , type_id
		  , department_id
		  , active
		  , nodes
		  , edges
		  , created_at
		  , updated_at
		FROM workflows
		WHERE type_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, typeID)

	workflow := &models.Workflow{}

	var (
		departmentID sql.NullString
		nodes        []byte
		edges        []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.TypeID,
		&departmentID,
		&workflow.Active,
		&nodes,
		&edges,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.WorkflowError{Op: "ByTypeID", TypeID: typeID, Err: persistence.ErrWorkflowNotFound}
	}

	if err != nil {
		return nil, &persistence.WorkflowError{Op: "ByTypeID", TypeID: typeID, Err: err}
	}

	workflow.DepartmentID = departmentID.String

	err = json.Unmarshal(nodes, &workflow.Nodes)
	if err != nil {
		return nil, &persistence.WorkflowError{Op: "ByTypeID", TypeID: typeID, Err: fmt.Errorf("failed to decode nodes: %w", err)}
	}

	err = json.Unmarshal(edges, &workflow.Edges)
	if err != nil {
		return nil, &persistence.WorkflowError{Op: "ByTypeID", TypeID: typeID, Err: fmt.Errorf("failed to decode edges: %w", err)}
	}

	return workflow, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
