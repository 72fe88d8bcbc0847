package memory

import (
	"github.com/google/uuid"

	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence"
)

// Unlocked operations. Callers hold the appropriate lock. Values are cloned
// on the way in and out so callers can never mutate stored state directly.
// Identifiers are assigned here, matching the SQL repositories, so callers
// see the generated ID on the struct they passed in.

func (p *Persistence) saveWorkflow(workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	p.workflows[workflow.TypeID] = cloneWorkflow(workflow)

	return nil
}

func (p *Persistence) workflowByTypeID(typeID string) (*models.Workflow, error) {
	workflow, ok := p.workflows[typeID]
	if !ok {
		return nil, &persistence.WorkflowError{Op: "ByTypeID", TypeID: typeID, Err: persistence.ErrWorkflowNotFound}
	}

	return cloneWorkflow(workflow), nil
}

func (p *Persistence) createSolicitation(solicitation *models.Solicitation) error {
	if solicitation.ID == "" {
		solicitation.ID = uuid.New().String()
	}

	for _, existing := range p.solicitations {
		if existing.Protocolo == solicitation.Protocolo {
			return &persistence.SolicitationError{
				Op:             "Create",
				SolicitationID: solicitation.ID,
				Err:            persistence.ErrDuplicateProtocol,
			}
		}
	}

	p.solicitations[solicitation.ID] = cloneSolicitation(solicitation)

	return nil
}

func (p *Persistence) solicitationByID(id string) (*models.Solicitation, error) {
	solicitation, ok := p.solicitations[id]
	if !ok {
		return nil, &persistence.SolicitationError{Op: "ByID", SolicitationID: id, Err: persistence.ErrSolicitationNotFound}
	}

	return cloneSolicitation(solicitation), nil
}

func (p *Persistence) updateSolicitation(solicitation *models.Solicitation) error {
	if _, ok := p.solicitations[solicitation.ID]; !ok {
		return &persistence.SolicitationError{
			Op:             "Update",
			SolicitationID: solicitation.ID,
			Err:            persistence.ErrSolicitationNotFound,
		}
	}

	p.solicitations[solicitation.ID] = cloneSolicitation(solicitation)

	return nil
}

func (p *Persistence) appendTimelineEvent(event *models.TimelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	clone := *event
	p.timeline[event.SolicitationID] = append(p.timeline[event.SolicitationID], &clone)

	return nil
}

func (p *Persistence) timelineBySolicitation(solicitationID string) ([]*models.TimelineEvent, error) {
	events := p.timeline[solicitationID]
	out := make([]*models.TimelineEvent, 0, len(events))

	for _, event := range events {
		clone := *event
		out = append(out, &clone)
	}

	return out, nil
}

func (p *Persistence) createAttachment(attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.New().String()
	}

	clone := *attachment
	p.attachments[attachment.SolicitationID] = append(p.attachments[attachment.SolicitationID], &clone)

	return nil
}

func (p *Persistence) attachmentsBySolicitation(solicitationID string) ([]*models.Attachment, error) {
	attachments := p.attachments[solicitationID]
	out := make([]*models.Attachment, 0, len(attachments))

	for _, attachment := range attachments {
		clone := *attachment
		out = append(out, &clone)
	}

	return out, nil
}

// snapshot captures the current state of every map for rollback.
type memorySnapshot struct {
	workflows     map[string]*models.Workflow
	solicitations map[string]*models.Solicitation
	timeline      map[string][]*models.TimelineEvent
	attachments   map[string][]*models.Attachment
}

func (p *Persistence) snapshot() *memorySnapshot {
	snap := &memorySnapshot{
		workflows:     make(map[string]*models.Workflow, len(p.workflows)),
		solicitations: make(map[string]*models.Solicitation, len(p.solicitations)),
		timeline:      make(map[string][]*models.TimelineEvent, len(p.timeline)),
		attachments:   make(map[string][]*models.Attachment, len(p.attachments)),
	}

	for key, workflow := range p.workflows {
		snap.workflows[key] = workflow
	}

	for key, solicitation := range p.solicitations {
		snap.solicitations[key] = solicitation
	}

	for key, events := range p.timeline {
		snap.timeline[key] = append([]*models.TimelineEvent(nil), events...)
	}

	for key, attachments := range p.attachments {
		snap.attachments[key] = append([]*models.Attachment(nil), attachments...)
	}

	return snap
}

func (p *Persistence) restore(snap *memorySnapshot) {
	p.workflows = snap.workflows
	p.solicitations = snap.solicitations
	p.timeline = snap.timeline
	p.attachments = snap.attachments
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	clone := *workflow

	clone.Nodes = make([]*models.StepNode, 0, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		clone.Nodes = append(clone.Nodes, cloneNode(node))
	}

	clone.Edges = make([]*models.Transition, 0, len(workflow.Edges))

	for _, edge := range workflow.Edges {
		edgeClone := *edge
		clone.Edges = append(clone.Edges, &edgeClone)
	}

	return &clone
}

func cloneNode(node *models.StepNode) *models.StepNode {
	clone := *node

	if node.Department != nil {
		department := *node.Department
		clone.Department = &department
	}

	if node.Approval != nil {
		approval := *node.Approval
		approval.ApproverUserIDs = append([]string(nil), node.Approval.ApproverUserIDs...)
		clone.Approval = &approval
	}

	if node.NotificationTemplate != nil {
		template := *node.NotificationTemplate
		clone.NotificationTemplate = &template
	}

	if node.ApprovalTemplate != nil {
		template := *node.ApprovalTemplate
		clone.ApprovalTemplate = &template
	}

	clone.NotificationEmails = append([]string(nil), node.NotificationEmails...)

	return &clone
}

func cloneSolicitation(solicitation *models.Solicitation) *models.Solicitation {
	clone := *solicitation

	if solicitation.Payload != nil {
		clone.Payload = make(map[string]string, len(solicitation.Payload))
		for key, value := range solicitation.Payload {
			clone.Payload[key] = value
		}
	}

	return &clone
}
