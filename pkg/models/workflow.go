// Package models defines the core domain models for request routing workflows.
package models

import "time"

// Workflow represents the routing graph bound to one request type. A type has
// at most one graph; saving a graph replaces the previous node/edge set as a
// whole.
type Workflow struct {
	ID           string        `json:"id"`
	TypeID       string        `json:"type_id"                 validate:"required"`
	DepartmentID string        `json:"department_id,omitempty"`
	Active       bool          `json:"active"`
	Nodes        []*StepNode   `json:"nodes"`
	Edges        []*Transition `json:"edges"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Transition is a directed edge between two step nodes. Condition is an
// optional discriminant key; when a node has more than one outgoing edge the
// caller selects the edge by its condition key. Approval gates use the
// well-known keys ConditionApproved and ConditionRejected. An edge flagged
// Cancel reaching an END node closes the request as CANCELADA instead of
// CONCLUIDA.
type Transition struct {
	ID        string `json:"id"`
	From      string `json:"source"              validate:"required"`
	To        string `json:"target"              validate:"required"`
	Condition string `json:"condition,omitempty"`
	Cancel    bool   `json:"cancel,omitempty"`
}

// Well-known edge condition keys.
const (
	ConditionApproved = "approved"
	ConditionRejected = "rejected"
)

// NodeByKey returns the node with the given key, or nil.
func (w *Workflow) NodeByKey(key string) *StepNode {
	for _, node := range w.Nodes {
		if node.Key == key {
			return node
		}
	}

	return nil
}

// OutgoingEdges returns every edge leaving the given node key, in declaration
// order.
func (w *Workflow) OutgoingEdges(key string) []*Transition {
	edges := make([]*Transition, 0)

	for _, edge := range w.Edges {
		if edge.From == key {
			edges = append(edges, edge)
		}
	}

	return edges
}

// EntryNode returns the single node with no incoming edge, or nil when the
// graph has zero or several of them. Validation guarantees exactly one for
// saved graphs.
func (w *Workflow) EntryNode() *StepNode {
	incoming := make(map[string]int, len(w.Nodes))
	for _, edge := range w.Edges {
		incoming[edge.To]++
	}

	var entry *StepNode

	for _, node := range w.Nodes {
		if incoming[node.Key] == 0 {
			if entry != nil {
				return nil
			}

			entry = node
		}
	}

	return entry
}
