// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations return.
var (
	// ErrWorkflowNotFound indicates no graph has been saved for the request type.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrSolicitationNotFound indicates a solicitation was not found by the given identifier.
	ErrSolicitationNotFound = errors.New("solicitation not found")

	// ErrAttachmentNotFound indicates an attachment was not found by the given identifier.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrDuplicateProtocol indicates a protocol number collision on insert.
	ErrDuplicateProtocol = errors.New("protocol number already exists")
)

// WorkflowError wraps graph store errors with operation context.
type WorkflowError struct {
	Op     string // Operation being performed (e.g. "Save", "ByTypeID")
	TypeID string
	Err    error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow of type %s: %v", e.Op, e.TypeID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// SolicitationError wraps solicitation store errors with operation context.
type SolicitationError struct {
	Op             string
	SolicitationID string
	Err            error
}

func (e *SolicitationError) Error() string {
	return fmt.Sprintf("%s operation failed for solicitation %s: %v", e.Op, e.SolicitationID, e.Err)
}

func (e *SolicitationError) Unwrap() error {
	return e.Err
}

func (e *SolicitationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a missing graph.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsSolicitationNotFound checks if an error indicates a missing solicitation.
func IsSolicitationNotFound(err error) bool {
	return errors.Is(err, ErrSolicitationNotFound)
}
