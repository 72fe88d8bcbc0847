// Package models defines the core domain models for request routing workflows.
package models

// NodeKind is the closed set of step node kinds. Behavior per kind is
// dispatched by the transition executor with an exhaustive switch.
type NodeKind string

const (
	NodeKindDepartment NodeKind = "DEPARTMENT" // hand-off to a department's queue
	NodeKindApproval   NodeKind = "APPROVAL"   // approval gate
	NodeKindEnd        NodeKind = "END"        // terminal node
)

// DepartmentStep is the payload of a DEPARTMENT node.
type DepartmentStep struct {
	DepartmentID string `json:"department_id" validate:"required"`
}

// ApprovalStep is the payload of an APPROVAL node. Either an explicit user
// list or a group reference must resolve to at least one approver.
type ApprovalStep struct {
	ApproverUserIDs []string `json:"approver_user_ids,omitempty"`
	ApproverGroupID string   `json:"approver_group_id,omitempty"`
}

// MessageTemplate holds the subject/body pair rendered for notifications.
// Placeholders of the form {protocolo} are substituted at dispatch time.
type MessageTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// StepNode is one step of a routing graph. Exactly one of Department/Approval
// is set, matching Kind; END nodes carry neither.
type StepNode struct {
	Key                  string           `json:"key"                             validate:"required"`
	Label                string           `json:"label"                           validate:"required"`
	Kind                 NodeKind         `json:"kind"                            validate:"required,oneof=DEPARTMENT APPROVAL END"`
	Order                int              `json:"order"`
	Department           *DepartmentStep  `json:"department,omitempty"`
	Approval             *ApprovalStep    `json:"approval,omitempty"`
	NotificationEmails   []string         `json:"notification_emails,omitempty"`
	NotificationTemplate *MessageTemplate `json:"notification_template,omitempty"`
	ApprovalTemplate     *MessageTemplate `json:"approval_template,omitempty"`
}

func (n *StepNode) IsDepartment() bool { return n.Kind == NodeKindDepartment }

func (n *StepNode) IsApproval() bool { return n.Kind == NodeKindApproval }

func (n *StepNode) IsEnd() bool { return n.Kind == NodeKindEnd }

// HasApprovers reports whether the node's approval payload references at
// least one explicit user or a group.
func (n *StepNode) HasApprovers() bool {
	if n.Approval == nil {
		return false
	}

	return len(n.Approval.ApproverUserIDs) > 0 || n.Approval.ApproverGroupID != ""
}
