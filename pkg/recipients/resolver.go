// Package recipients computes the notification and approval audience of a
// workflow step.
package recipients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tramite-io/tramite/pkg/directory"
	"github.com/tramite-io/tramite/pkg/models"
)

// Resolver resolves step nodes to e-mail audiences through the user
// directory. An empty audience is not an error: it is logged and the
// notification is skipped by the dispatcher.
type Resolver struct {
	users  directory.Users
	logger *slog.Logger
}

// NewResolver creates a recipient resolver.
func NewResolver(users directory.Users, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{users: users, logger: logger}
}

// Resolve returns the de-duplicated set of addresses to notify on entry to a
// node. DEPARTMENT nodes get the node's explicit e-mails plus the active
// members of the department; APPROVAL nodes get the explicit e-mails plus the
// approver addresses; END nodes get only the explicit e-mails.
func (r *Resolver) Resolve(ctx context.Context, node *models.StepNode) ([]string, error) {
	addresses := newAddressSet()
	addresses.addAll(node.NotificationEmails)

	switch node.Kind {
	case models.NodeKindDepartment:
		users, err := r.users.ActiveUsersByDepartment(ctx, node.Department.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve department members for node %s: %w", node.Key, err)
		}

		for _, user := range users {
			addresses.add(user.Email)
		}

	case models.NodeKindApproval:
		approvers, err := r.Approvers(ctx, node)
		if err != nil {
			return nil, err
		}

		for _, approver := range approvers {
			addresses.add(approver.Email)
		}

	case models.NodeKindEnd:
		// explicit e-mails only
	}

	result := addresses.slice()
	if len(result) == 0 {
		r.logger.InfoContext(ctx, "no recipients resolved for node, notification will be skipped",
			"node", node.Key, "kind", node.Kind)
	}

	return result, nil
}

// Approvers returns the users allowed to decide an APPROVAL node: the
// explicit approver list when present, otherwise the active members of the
// approver group.
func (r *Resolver) Approvers(ctx context.Context, node *models.StepNode) ([]*directory.User, error) {
	if node.Approval == nil {
		return nil, nil
	}

	if len(node.Approval.ApproverUserIDs) > 0 {
		approvers := make([]*directory.User, 0, len(node.Approval.ApproverUserIDs))

		for _, userID := range node.Approval.ApproverUserIDs {
			user, err := r.users.UserByID(ctx, userID)
			if err != nil {
				// A stale approver reference should not block the others.
				r.logger.WarnContext(ctx, "approver not found in directory, skipping",
					"node", node.Key, "user_id", userID)

				continue
			}

			if user.Active {
				approvers = append(approvers, user)
			}
		}

		return approvers, nil
	}

	if node.Approval.ApproverGroupID != "" {
		approvers, err := r.users.ActiveUsersByGroup(ctx, node.Approval.ApproverGroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve approver group for node %s: %w", node.Key, err)
		}

		return approvers, nil
	}

	return nil, nil
}

// addressSet de-duplicates addresses case-insensitively while keeping the
// first-seen spelling.
type addressSet struct {
	seen  map[string]bool
	order []string
}

func newAddressSet() *addressSet {
	return &addressSet{seen: make(map[string]bool)}
}

func (s *addressSet) add(address string) {
	if address == "" {
		return
	}

	key := strings.ToLower(address)
	if s.seen[key] {
		return
	}

	s.seen[key] = true
	s.order = append(s.order, address)
}

func (s *addressSet) addAll(addresses []string) {
	for _, address := range addresses {
		s.add(address)
	}
}

func (s *addressSet) slice() []string {
	return append([]string(nil), s.order...)
}
