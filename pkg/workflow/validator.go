package workflow

import (
	"github.com/tramite-io/tramite/pkg/models"
)

// Validate checks every structural invariant of a routing graph. It is called
// by the graph store before persisting and returns the first violation found:
//
//   - every edge endpoint references an existing node key;
//   - exactly one node has in-degree zero (the entry node);
//   - every node is reachable from the entry node;
//   - every non-END node reaches at least one END node;
//   - no node transitively reaches itself;
//   - APPROVAL nodes carry at least one approver or a group reference;
//   - DEPARTMENT nodes carry a department reference.
func Validate(nodes []*models.StepNode, edges []*models.Transition) error {
	byKey := make(map[string]*models.StepNode, len(nodes))

	for _, node := range nodes {
		if _, dup := byKey[node.Key]; dup {
			return &GraphStructureError{NodeKey: node.Key, Err: ErrDuplicateNodeKey}
		}

		byKey[node.Key] = node
	}

	for _, edge := range edges {
		if _, ok := byKey[edge.From]; !ok {
			return &GraphStructureError{EdgeID: edge.ID, Err: ErrUnknownNodeRef}
		}

		if _, ok := byKey[edge.To]; !ok {
			return &GraphStructureError{EdgeID: edge.ID, Err: ErrUnknownNodeRef}
		}
	}

	entry, err := findEntry(nodes, edges)
	if err != nil {
		return err
	}

	if err := validateNodeConfigs(nodes); err != nil {
		return err
	}

	adjacency := make(map[string][]string, len(nodes))
	for _, edge := range edges {
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}

	if err := checkReachability(entry.Key, byKey, adjacency); err != nil {
		return err
	}

	if err := checkCycles(nodes, adjacency); err != nil {
		return err
	}

	return checkEndReachability(nodes, adjacency, byKey)
}

func findEntry(nodes []*models.StepNode, edges []*models.Transition) (*models.StepNode, error) {
	incoming := make(map[string]int, len(nodes))
	for _, edge := range edges {
		incoming[edge.To]++
	}

	var entry *models.StepNode

	for _, node := range nodes {
		if incoming[node.Key] != 0 {
			continue
		}

		if entry != nil {
			return nil, &GraphStructureError{NodeKey: node.Key, Err: ErrMultipleEntryNodes}
		}

		entry = node
	}

	if entry == nil {
		return nil, &GraphStructureError{Err: ErrNoEntryNode}
	}

	return entry, nil
}

func validateNodeConfigs(nodes []*models.StepNode) error {
	hasEnd := false

	for _, node := range nodes {
		if err := validateNodeSchema(node); err != nil {
			return err
		}

		switch node.Kind {
		case models.NodeKindDepartment:
			if node.Department == nil || node.Department.DepartmentID == "" {
				return &GraphConfigurationError{NodeKey: node.Key, Err: ErrDepartmentRequired}
			}
		case models.NodeKindApproval:
			if !node.HasApprovers() {
				return &GraphConfigurationError{NodeKey: node.Key, Err: ErrApproverRequired}
			}
		case models.NodeKindEnd:
			hasEnd = true
		}
	}

	if !hasEnd {
		return &GraphStructureError{Err: ErrNoEndNode}
	}

	return nil
}

func checkReachability(entryKey string, byKey map[string]*models.StepNode, adjacency map[string][]string) error {
	visited := make(map[string]bool, len(byKey))
	stack := []string{entryKey}

	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[key] {
			continue
		}

		visited[key] = true
		stack = append(stack, adjacency[key]...)
	}

	for key := range byKey {
		if !visited[key] {
			return &GraphStructureError{NodeKey: key, Err: ErrUnreachableNode}
		}
	}

	return nil
}

// checkCycles runs a DFS with an explicit recursion stack; a back edge to a
// node still on the stack means that node reaches itself.
func checkCycles(nodes []*models.StepNode, adjacency map[string][]string) error {
	const (
		unvisited = iota
		inStack
		done
	)

	state := make(map[string]int, len(nodes))

	var visit func(key string) error

	visit = func(key string) error {
		state[key] = inStack

		for _, next := range adjacency[key] {
			switch state[next] {
			case inStack:
				return &GraphCycleError{NodeKey: next}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		state[key] = done

		return nil
	}

	for _, node := range nodes {
		if state[node.Key] == unvisited {
			if err := visit(node.Key); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkEndReachability verifies no node is a dead end: from every node some
// END node must remain reachable.
func checkEndReachability(nodes []*models.StepNode, adjacency map[string][]string, byKey map[string]*models.StepNode) error {
	reachesEnd := make(map[string]bool, len(nodes))

	var visit func(key string) bool

	visiting := make(map[string]bool, len(nodes))

	visit = func(key string) bool {
		if reachesEnd[key] {
			return true
		}

		if byKey[key].IsEnd() {
			reachesEnd[key] = true

			return true
		}

		if visiting[key] {
			return false
		}

		visiting[key] = true
		defer delete(visiting, key)

		for _, next := range adjacency[key] {
			if visit(next) {
				reachesEnd[key] = true

				return true
			}
		}

		return false
	}

	for _, node := range nodes {
		if !visit(node.Key) {
			return &GraphStructureError{NodeKey: node.Key, Err: ErrDeadEnd}
		}
	}

	return nil
}
