// Package memory provides a goroutine-safe in-memory persistence
// implementation backed by maps, used by tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// Persistence is an in-memory store. A unit of work holds the store lock for
// its whole duration, which gives the same serialization guarantee the SQL
// implementation gets from row locks: a second concurrent decision observes
// the first one's committed state.
type Persistence struct {
	mu            sync.RWMutex
	workflows     map[string]*models.Workflow // keyed by type ID
	solicitations map[string]*models.Solicitation
	timeline      map[string][]*models.TimelineEvent
	attachments   map[string][]*models.Attachment
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:     make(map[string]*models.Workflow),
		solicitations: make(map[string]*models.Solicitation),
		timeline:      make(map[string][]*models.TimelineEvent),
		attachments:   make(map[string][]*models.Attachment),
	}
}

var (
	_ persistence.Persistence = (*Persistence)(nil)
	_ persistence.Store       = (*txView)(nil)
)

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.saveWorkflow(workflow)
}

func (p *Persistence) WorkflowByTypeID(ctx context.Context, typeID string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.workflowByTypeID(typeID)
}

func (p *Persistence) CreateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.createSolicitation(solicitation)
}

func (p *Persistence) SolicitationByID(ctx context.Context, id string) (*models.Solicitation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.solicitationByID(id)
}

func (p *Persistence) UpdateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.updateSolicitation(solicitation)
}

func (p *Persistence) AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.appendTimelineEvent(event)
}

func (p *Persistence) TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.timelineBySolicitation(solicitationID)
}

func (p *Persistence) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.createAttachment(attachment)
}

func (p *Persistence) AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.attachmentsBySolicitation(solicitationID)
}

// WithinTx serializes the whole unit of work under the store lock. On error
// every map is restored from the snapshot taken before fn ran, so partial
// mutations never become visible.
func (p *Persistence) WithinTx(ctx context.Context, fn func(tx persistence.Store) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.snapshot()

	err := fn(&txView{store: p})
	if err != nil {
		p.restore(snapshot)

		return err
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	return nil
}

// txView exposes the unlocked operations while the unit-of-work lock is held.
type txView struct {
	store *Persistence
}

func (t *txView) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return t.store.saveWorkflow(workflow)
}

func (t *txView) WorkflowByTypeID(ctx context.Context, typeID string) (*models.Workflow, error) {
	return t.store.workflowByTypeID(typeID)
}

func (t *txView) CreateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return t.store.createSolicitation(solicitation)
}

func (t *txView) SolicitationByID(ctx context.Context, id string) (*models.Solicitation, error) {
	return t.store.solicitationByID(id)
}

func (t *txView) UpdateSolicitation(ctx context.Context, solicitation *models.Solicitation) error {
	return t.store.updateSolicitation(solicitation)
}

func (t *txView) AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error {
	return t.store.appendTimelineEvent(event)
}

func (t *txView) TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error) {
	return t.store.timelineBySolicitation(solicitationID)
}

func (t *txView) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return t.store.createAttachment(attachment)
}

func (t *txView) AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error) {
	return t.store.attachmentsBySolicitation(solicitationID)
}
