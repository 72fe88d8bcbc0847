// Package engine executes routing workflows: it advances solicitations along
// graph edges, runs approval gates and performs the transactional
// finalize-and-forward operation.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Engine error taxonomy. Callers match with errors.Is; the web layer maps
// each family to a problem document naming the violated invariant.
var (
	// ErrInvalidState indicates an operation attempted on a solicitation not in
	// the expected state, including double-submitted decisions and repeated
	// finalize calls.
	ErrInvalidState = errors.New("solicitation is not in the expected state")

	// ErrForbidden indicates a decision by a user outside the resolved approver set.
	ErrForbidden = errors.New("user is not an approver for this step")

	// ErrAmbiguousTransition indicates a branching step where the caller did not
	// name which edge to take.
	ErrAmbiguousTransition = errors.New("transition is ambiguous, a condition is required")

	// ErrUnsupportedType indicates a finalize-and-forward on a type that does
	// not forward.
	ErrUnsupportedType = errors.New("request type does not support forwarding")

	// ErrNoOutgoingEdges indicates an advance from a node with no outgoing edge.
	// Validated graphs never produce this outside END nodes.
	ErrNoOutgoingEdges = errors.New("current step has no outgoing edges")
)

// StateError wraps ErrInvalidState with what the operation expected and found.
type StateError struct {
	SolicitationID string
	Expected       string
	Actual         string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("solicitation %s: expected %s, found %s", e.SolicitationID, e.Expected, e.Actual)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// AmbiguousTransitionError lists the condition keys available at the
// branching step so the caller can disambiguate.
type AmbiguousTransitionError struct {
	StepKey    string
	Conditions []string
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("step %q branches, supply one of the conditions: %s",
		e.StepKey, strings.Join(e.Conditions, ", "))
}

func (e *AmbiguousTransitionError) Is(target error) bool {
	return target == ErrAmbiguousTransition
}

func (e *AmbiguousTransitionError) Unwrap() error {
	return ErrAmbiguousTransition
}

// ValidationError names the missing or invalid field of a finalize call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}

// ConfigurationError reports a destination lookup the forwarding step depends
// on that does not exist. It aborts the whole transaction and is surfaced to
// the operator as an actionable message.
type ConfigurationError struct {
	Lookup string // "type", "department" or "cost center"
	Key    string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("forwarding depends on %s %q which could not be resolved: %v", e.Lookup, e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks whether err is a missing-field error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// IsConfigurationError checks whether err is a broken-lookup error.
func IsConfigurationError(err error) bool {
	var configurationErr *ConfigurationError

	return errors.As(err, &configurationErr)
}
