// Package persistence provides the data storage abstraction for workflows,
// solicitations and their timeline/attachment rows.
package persistence

import (
	"context"

	"github.com/tramite-io/tramite/pkg/models"
)

// Store is the set of repositories visible both outside and inside a
// transaction. All graph reads return a consistent snapshot: the engine loads
// the workflow once per operation and never re-reads it mid-transition.
type Store interface {
	// SaveWorkflow replaces the whole node/edge set for the workflow's type.
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	// WorkflowByTypeID returns the most recently saved graph for the type.
	WorkflowByTypeID(ctx context.Context, typeID string) (*models.Workflow, error)

	CreateSolicitation(ctx context.Context, solicitation *models.Solicitation) error
	// SolicitationByID loads a solicitation. Inside a unit of work the row is
	// locked for update so concurrent decisions serialize on it.
	SolicitationByID(ctx context.Context, id string) (*models.Solicitation, error)
	UpdateSolicitation(ctx context.Context, solicitation *models.Solicitation) error

	AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error
	TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error)

	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error)
}

// UnitOfWork runs fn against a transactional store view. Every mutation made
// through the view commits atomically when fn returns nil and is rolled back
// entirely when fn returns an error.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Persistence is the full storage handle constructed at startup and passed to
// the services and the engine. No package-level singleton exists; every
// component receives its handle explicitly.
type Persistence interface {
	Store
	UnitOfWork

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
