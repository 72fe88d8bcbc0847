package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// SolicitationRepository handles solicitation, timeline and attachment rows.
// When bound to a transaction it reads solicitations with FOR UPDATE, which
// is what serializes two approvers racing on the same request.
type SolicitationRepository struct {
	db        querier
	logger    *slog.Logger
	forUpdate bool
}

// NewSolicitationRepository creates a repository bound to a database handle
// or an open transaction.
func NewSolicitationRepository(db querier, logger *slog.Logger, forUpdate bool) *SolicitationRepository {
	return &SolicitationRepository{db: db, logger: logger, forUpdate: forUpdate}
}

func (r *SolicitationRepository) Create(ctx context.Context, solicitation *models.Solicitation) error {
	if solicitation.ID == "" {
		solicitation.ID = uuid.New().String()
	}

	payload, err := json.Marshal(solicitation.Payload)
	if err != nil {
		return &persistence.SolicitationError{Op: "Create", SolicitationID: solicitation.ID, Err: err}
	}

	query := `
		INSERT INTO solicitations (
			id, protocolo, type_id, department_id, cost_center_id, solicitante_id,
			parent_id, status, approval_status, current_step_key, payload,
			requires_approval, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		solicitation.ID,
		solicitation.Protocolo,
		solicitation.TypeID,
		solicitation.DepartmentID,
		solicitation.CostCenterID,
		solicitation.SolicitanteID,
		nullableString(solicitation.ParentID),
		string(solicitation.Status),
		string(solicitation.ApprovalStatus),
		nullableString(solicitation.CurrentStepKey),
		payload,
		solicitation.RequiresApproval,
		solicitation.CreatedAt,
		solicitation.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "solicitations_protocolo_key") {
			return &persistence.SolicitationError{
				Op:             "Create",
				SolicitationID: solicitation.ID,
				Err:            persistence.ErrDuplicateProtocol,
			}
		}

		return &persistence.SolicitationError{Op: "Create", SolicitationID: solicitation.ID, Err: err}
	}

	return nil
}

func (r *SolicitationRepository) ByID(ctx context.Context, id string) (*models.Solicitation, error) {
	query := `
		SELECT
			id
		  , protocolo
		  , type_id
		  , department_id
		  , cost_center_id
		  , solicitante_id
		  , parent_id
		  , status
		  , approval_status
		  , current_step_key
		  , payload
		  , requires_approval
		  , created_at
		  , updated_at
		FROM solicitations
		WHERE id = $1
	`

	if r.forUpdate {
		query += " FOR UPDATE"
	}

	row := r.db.QueryRowContext(ctx, query, id)

	solicitation := &models.Solicitation{}

	var (
		parentID       sql.NullString
		currentStepKey sql.NullString
		payload        []byte
	)

	err := row.Scan(
		&solicitation.ID,
		&solicitation.Protocolo,
		&solicitation.TypeID,
		&solicitation.DepartmentID,
		&solicitation.CostCenterID,
		&solicitation.SolicitanteID,
		&parentID,
		&solicitation.Status,
		&solicitation.ApprovalStatus,
		&currentStepKey,
		&payload,
		&solicitation.RequiresApproval,
		&solicitation.CreatedAt,
		&solicitation.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.SolicitationError{Op: "ByID", SolicitationID: id, Err: persistence.ErrSolicitationNotFound}
	}

	if err != nil {
		return nil, &persistence.SolicitationError{Op: "ByID", SolicitationID: id, Err: err}
	}

	solicitation.ParentID = parentID.String
	solicitation.CurrentStepKey = currentStepKey.String

	if len(payload) > 0 {
		err = json.Unmarshal(payload, &solicitation.Payload)
		if err != nil {
			return nil, &persistence.SolicitationError{Op: "ByID", SolicitationID: id, Err: err}
		}
	}

	return solicitation, nil
}

func (r *SolicitationRepository) Update(ctx context.Context, solicitation *models.Solicitation) error {
	payload, err := json.Marshal(solicitation.Payload)
	if err != nil {
		return &persistence.SolicitationError{Op: "Update", SolicitationID: solicitation.ID, Err: err}
	}

	query := `
		UPDATE solicitations SET
			status = $2
		  , approval_status = $3
		  , current_step_key = $4
		  , payload = $5
		  , requires_approval = $6
		  , updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		solicitation.ID,
		string(solicitation.Status),
		string(solicitation.ApprovalStatus),
		nullableString(solicitation.CurrentStepKey),
		payload,
		solicitation.RequiresApproval,
		solicitation.UpdatedAt,
	)
	if err != nil {
		return &persistence.SolicitationError{Op: "Update", SolicitationID: solicitation.ID, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.SolicitationError{Op: "Update", SolicitationID: solicitation.ID, Err: err}
	}

	if affected == 0 {
		return &persistence.SolicitationError{
			Op:             "Update",
			SolicitationID: solicitation.ID,
			Err:            persistence.ErrSolicitationNotFound,
		}
	}

	return nil
}

func (r *SolicitationRepository) AppendTimelineEvent(ctx context.Context, event *models.TimelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
		INSERT INTO timeline_events (id, solicitation_id, status, message, actor_id, tipo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.SolicitationID,
		string(event.Status),
		event.Message,
		nullableString(event.ActorID),
		string(event.Tipo),
		event.CreatedAt,
	)
	if err != nil {
		return &persistence.SolicitationError{Op: "AppendTimelineEvent", SolicitationID: event.SolicitationID, Err: err}
	}

	return nil
}

func (r *SolicitationRepository) TimelineBySolicitation(ctx context.Context, solicitationID string) ([]*models.TimelineEvent, error) {
	query := `
		SELECT
			id
		  , solicitation_id
		  , status
		  , message
		  , actor_id
		  , tipo
		  , created_at
		FROM timeline_events
		WHERE solicitation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, solicitationID)
	if err != nil {
		return nil, &persistence.SolicitationError{Op: "TimelineBySolicitation", SolicitationID: solicitationID, Err: err}
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	events := make([]*models.TimelineEvent, 0)

	for rows.Next() {
		event := &models.TimelineEvent{}

		var actorID sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.SolicitationID,
			&event.Status,
			&event.Message,
			&actorID,
			&event.Tipo,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, &persistence.SolicitationError{Op: "TimelineBySolicitation", SolicitationID: solicitationID, Err: err}
		}

		event.ActorID = actorID.String
		events = append(events, event)
	}

	err = rows.Err()
	if err != nil {
		return nil, &persistence.SolicitationError{Op: "TimelineBySolicitation", SolicitationID: solicitationID, Err: err}
	}

	return events, nil
}

func (r *SolicitationRepository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attachments (id, solicitation_id, file_name, content_type, size, blob_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		attachment.ID,
		attachment.SolicitationID,
		attachment.FileName,
		nullableString(attachment.ContentType),
		attachment.Size,
		attachment.BlobKey,
		attachment.CreatedAt,
	)
	if err != nil {
		return &persistence.SolicitationError{Op: "CreateAttachment", SolicitationID: attachment.SolicitationID, Err: err}
	}

	return nil
}

func (r *SolicitationRepository) AttachmentsBySolicitation(ctx context.Context, solicitationID string) ([]*models.Attachment, error) {
	query := `
		SELECT
			id
		  , solicitation_id
		  , file_name
		  , content_type
		  , size
		  , blob_key
		  , created_at
		FROM attachments
		WHERE solicitation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, solicitationID)
	if err != nil {
		return nil, &persistence.SolicitationError{Op: "AttachmentsBySolicitation", SolicitationID: solicitationID, Err: err}
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	attachments := make([]*models.Attachment, 0)

	for rows.Next() {
		attachment := &models.Attachment{}

		var contentType sql.NullString

		err := rows.Scan(
			&attachment.ID,
			&attachment.SolicitationID,
			&attachment.FileName,
			&contentType,
			&attachment.Size,
			&attachment.BlobKey,
			&attachment.CreatedAt,
		)
		if err != nil {
			return nil, &persistence.SolicitationError{Op: "AttachmentsBySolicitation", SolicitationID: solicitationID, Err: err}
		}

		attachment.ContentType = contentType.String
		attachments = append(attachments, attachment)
	}

	err = rows.Err()
	if err != nil {
		return nil, &persistence.SolicitationError{Op: "AttachmentsBySolicitation", SolicitationID: solicitationID, Err: err}
	}

	return attachments, nil
}
