package workflow

import (
	"fmt"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// ValidationResult is the outcome of validating a graph's structure
// before execution: hard Errors make the graph unrunnable, Warnings do
// not.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// TopologicalSort orders a graph's nodes via Kahn's algorithm. It
// returns the order and, if the graph contains a cycle, a
// CyclicGraphError naming every node that could not be scheduled
// (the nodes still holding inbound edges when no more zero-in-degree
// nodes remain).
func TopologicalSort(graph *Graph) ([]*Node, error) {
	inDegree := make(map[string]int, len(graph.Nodes))
	for id, n := range graph.Nodes {
		inDegree[id] = len(n.Inputs)
	}

	queue := make([]string, 0, len(graph.Nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]*Node, 0, len(graph.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, graph.Nodes[id])

		for _, targetID := range graph.Nodes[id].Outputs {
			inDegree[targetID]--
			if inDegree[targetID] == 0 {
				queue = append(queue, targetID)
			}
		}
	}

	if len(order) < len(graph.Nodes) {
		remaining := make([]string, 0, len(graph.Nodes)-len(order))
		for id, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		return order, NewCyclicGraphError(remaining)
	}

	return order, nil
}

// ValidateGraph runs the structural checks of §4.5 step 1 and 4: empty
// graph, dangling edges (already rejected by BuildGraph), missing
// source/destination nodes, source-with-predecessors or
// destination-with-successors, unknown connector types, and
// disconnected/unreachable node warnings. Cycle detection is a
// separate call (TopologicalSort) since the engine needs the order
// regardless of whether validation otherwise passes.
func ValidateGraph(graph *Graph, registry types.ConnectorRegistry) *ValidationResult {
	result := &ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	if len(graph.Nodes) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "workflow has no nodes")
		return result
	}

	hasSource := false
	hasDestination := false
	disconnected := make(map[string]bool, len(graph.Nodes))
	for id := range graph.Nodes {
		disconnected[id] = true
	}
	for _, e := range graph.Edges {
		disconnected[e.Source] = false
		disconnected[e.Target] = false
	}

	for id, node := range graph.Nodes {
		switch node.Type {
		case string(types.SourceConnector):
			hasSource = true
			if len(node.Inputs) > 0 {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("source node %s has predecessors", id))
			}
		case string(types.DestinationConnector):
			hasDestination = true
			if len(node.Outputs) > 0 {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("destination node %s has successors", id))
			}
		}

		if disconnected[id] && len(node.Inputs) == 0 && len(node.Outputs) == 0 && len(graph.Nodes) > 1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("node %s is disconnected", id))
		}

		if node.ConnectorTypeID == "" {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("node %s has no connector type", id))
			continue
		}

		connector, err := registry.Get(node.ConnectorTypeID)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("node %s uses unknown connector type: %s", id, node.ConnectorTypeID))
			continue
		}

		if string(connector.Type()) != node.Type {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("node %s type mismatch: graph says %s, connector %s is %s", id, node.Type, node.ConnectorTypeID, connector.Type()))
		}
	}

	if !hasSource {
		result.Valid = false
		result.Errors = append(result.Errors, "workflow must have at least one source node")
	}
	if !hasDestination {
		result.Valid = false
		result.Errors = append(result.Errors, "workflow must have at least one destination node")
	}

	reachable := reachableFromSources(graph)
	for id := range graph.Nodes {
		if !reachable[id] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("node %s is not reachable from any source node", id))
		}
	}

	return result
}

func reachableFromSources(graph *Graph) map[string]bool {
	reachable := make(map[string]bool, len(graph.Nodes))
	var visit func(id string)
	visit = func(id string) {
		if reachable[id] {
			return
		}
		reachable[id] = true
		for _, next := range graph.Nodes[id].Outputs {
			visit(next)
		}
	}
	for id, n := range graph.Nodes {
		if n.Type == string(types.SourceConnector) && len(n.Inputs) == 0 {
			visit(id)
		}
	}
	return reachable
}

// ValidateNodeConfig checks a node's config against the top-level
// "required" list of its connector's config schema, when one is
// present. Per-field "required": true flags are not read here; those are
// enforced by the connector's Configure.
func ValidateNodeConfig(node *Node, registry types.ConnectorRegistry) error {
	if node.ConnectorTypeID == "" {
		return NewValidationError("node type is empty", node.ID)
	}

	connector, err := registry.Get(node.ConnectorTypeID)
	if err != nil {
		return NewValidationError(fmt.Sprintf("unknown connector type: %s", node.ConnectorTypeID), node.ID)
	}

	schema := connector.GetConfigSchema()
	if schema == nil {
		return nil
	}

	required, ok := schema["required"].([]interface{})
	if !ok {
		return nil
	}

	for _, raw := range required {
		field, ok := raw.(string)
		if !ok {
			continue
		}
		if _, present := node.Config[field]; !present {
			return NewValidationError(fmt.Sprintf("required configuration field missing: %s", field), node.ID)
		}
	}

	return nil
}
