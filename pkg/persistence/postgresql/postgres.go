// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/persistence/sqlbase"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run outside or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	workflows     *WorkflowRepository
	solicitations *SolicitationRepository
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects, migrates the schema and returns a ready handle.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflows:     NewWorkflowRepository(database, logger),
		solicitations: NewSolicitationRepository(database, logger, false),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// WithinTx runs fn against repositories bound to one transaction. Reads of
// solicitations inside the transaction lock the row for update so concurrent
// units of work on the same solicitation serialize.
func (p *Persistence) WithinTx(ctx context.Context, fn func(tx persistence.Store) error) error {
	transaction, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &txStore{
		workflows:     NewWorkflowRepository(transaction, p.logger),
		solicitations: NewSolicitationRepository(transaction, p.logger, true),
	}

	err = fn(txStore)
	if err != nil {
		if rollbackErr := transaction.Rollback(); rollbackErr != nil {
			p.logger.ErrorContext(ctx, "failed to roll back transaction", "error", rollbackErr)
		}

		return err
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflows.Save(ctx, workflow)
}

func (p *Persistence) WorkflowByTypeID(ctx context.Context, typeID string) (*models.Workflow, error) {
	return p.workflows.ByTypeID(ctx, typeID)
}

func (p *Persistence) CreateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return p.solicitations.Create(ctx, solicitation)
}

func (p *Persistence) SolicitationByID(ctx context.Context, id string) (*models.Solicitation, error) {
	return p.solicitations.ByID(ctx, id)
}

func (p *Persistence) UpdateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return p.solicitations.Update(ctx, solicitation)
}

func (p *Persistence) AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error {
	return p.solicitations.AppendTimelineEvent(ctx, event)
}

func (p *Persistence) TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error) {
	return p.solicitations.TimelineBySolicitation(ctx, solicitationID)
}

func (p *Persistence) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return p.solicitations.CreateAttachment(ctx, attachment)
}

func (p *Persistence) AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error) {
	return p.solicitations.AttachmentsBySolicitation(ctx, solicitationID)
}

// txStore is the transactional view handed to unit-of-work callbacks.
type txStore struct {
	workflows     *WorkflowRepository
	solicitations *SolicitationRepository
}

var _ persistence.Store = (*txStore)(nil)

func (t *txStore) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return t.workflows.Save(ctx, workflow)
}

func (t *txStore) WorkflowByTypeID(ctx context.Context, typeID string) (*models.Workflow, error) {
	return t.workflows.ByTypeID(ctx, typeID)
}

func (t *txStore) CreateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return t.solicitations.Create(ctx, solicitation)
}

func (t *txStore) SolicitationByID(ctx context.Context, id string) (*models.Solicitation, error) {
	return t.solicitations.ByID(ctx, id)
}

func (t *txStore) UpdateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return t.solicitations.Update(ctx, solicitation)
}

func (t *txStore) AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error {
	return t.solicitations.AppendTimelineEvent(ctx, event)
}

func (t *txStore) TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error) {
	return t.solicitations.TimelineBySolicitation(ctx, solicitationID)
}

func (t *txStore) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return t.solicitations.CreateAttachment(ctx, attachment)
}

func (t *txStore) AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error) {
	return t.solicitations.AttachmentsBySolicitation(ctx, solicitationID)
}
