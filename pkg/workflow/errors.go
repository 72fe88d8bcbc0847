// Package workflow provides structural validation for routing graphs and the
// deterministic default graph used before a type is configured.
package workflow

import (
	"errors"
	"fmt"
)

// Structural validation errors. A graph failing any of these is rejected
// before persistence; nothing is partially saved.
var (
	// ErrNoEntryNode indicates no node has in-degree zero.
	ErrNoEntryNode = errors.New("graph has no entry node")

	// ErrMultipleEntryNodes indicates more than one node has in-degree zero.
	ErrMultipleEntryNodes = errors.New("graph has more than one entry node")

	// ErrUnreachableNode indicates a node cannot be reached from the entry node.
	ErrUnreachableNode = errors.New("node is unreachable from the entry node")

	// ErrUnknownNodeRef indicates an edge references a node key that does not exist.
	ErrUnknownNodeRef = errors.New("edge references unknown node")

	// ErrGraphCycle indicates a node transitively reaches itself.
	ErrGraphCycle = errors.New("graph contains a cycle")

	// ErrNoEndNode indicates the graph has no END node at all.
	ErrNoEndNode = errors.New("graph has no end node")

	// ErrDeadEnd indicates a node from which no END node is reachable.
	ErrDeadEnd = errors.New("no end node reachable from node")

	// ErrApproverRequired indicates an APPROVAL node with no resolvable approver.
	ErrApproverRequired = errors.New("approval node requires at least one approver or a group")

	// ErrDepartmentRequired indicates a DEPARTMENT node with no department reference.
	ErrDepartmentRequired = errors.New("department node requires a department reference")

	// ErrDuplicateNodeKey indicates two nodes sharing the same key.
	ErrDuplicateNodeKey = errors.New("duplicate node key")
)

// GraphStructureError wraps a structural invariant violation with the node or
// edge it was detected on.
type GraphStructureError struct {
	NodeKey string
	EdgeID  string
	Err     error
}

func (e *GraphStructureError) Error() string {
	switch {
	case e.NodeKey != "":
		return fmt.Sprintf("invalid graph structure at node %q: %v", e.NodeKey, e.Err)
	case e.EdgeID != "":
		return fmt.Sprintf("invalid graph structure at edge %q: %v", e.EdgeID, e.Err)
	default:
		return fmt.Sprintf("invalid graph structure: %v", e.Err)
	}
}

func (e *GraphStructureError) Unwrap() error {
	return e.Err
}

func (e *GraphStructureError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// GraphCycleError reports the node at which a cycle was detected.
type GraphCycleError struct {
	NodeKey string
}

func (e *GraphCycleError) Error() string {
	return fmt.Sprintf("graph contains a cycle through node %q", e.NodeKey)
}

func (e *GraphCycleError) Is(target error) bool {
	return target == ErrGraphCycle
}

func (e *GraphCycleError) Unwrap() error {
	return ErrGraphCycle
}

// GraphConfigurationError reports a node whose per-kind payload is missing or
// inconsistent (e.g. an approval gate without approvers).
type GraphConfigurationError struct {
	NodeKey string
	Err     error
}

func (e *GraphConfigurationError) Error() string {
	return fmt.Sprintf("node %q is misconfigured: %v", e.NodeKey, e.Err)
}

func (e *GraphConfigurationError) Unwrap() error {
	return e.Err
}

func (e *GraphConfigurationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsStructureError checks whether an error belongs to the structural family.
func IsStructureError(err error) bool {
	return errors.Is(err, ErrNoEntryNode) ||
		errors.Is(err, ErrMultipleEntryNodes) ||
		errors.Is(err, ErrUnreachableNode) ||
		errors.Is(err, ErrUnknownNodeRef) ||
		errors.Is(err, ErrGraphCycle) ||
		errors.Is(err, ErrNoEndNode) ||
		errors.Is(err, ErrDeadEnd) ||
		errors.Is(err, ErrDuplicateNodeKey)
}

// IsConfigurationError checks whether an error belongs to the per-node
// configuration family.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrApproverRequired) ||
		errors.Is(err, ErrDepartmentRequired)
}
