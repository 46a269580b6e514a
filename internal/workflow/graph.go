package workflow

// Node is one vertex of a workflow graph: a connector instantiation
// plus its static configuration and its position in the graph.
type Node struct {
	ID              string                 `json:"id"`
	Label           string                 `json:"label"`
	Type            string                 `json:"type"` // "source", "processor", "destination"
	ConnectorTypeID string                 `json:"connector_type_id"`
	Config          map[string]interface{} `json:"config"`
	Inputs          []string               `json:"-"`
	Outputs         []string               `json:"-"`
}

// ContinueOnError reports whether a connector failure at this node
// should be tolerated (see the engine's failure policy).
func (n *Node) ContinueOnError() bool {
	if n.Config == nil {
		return false
	}
	v, _ := n.Config["continue_on_error"].(bool)
	return v
}

// Edge connects two nodes; Port names which of a multi-output node's
// outputs feeds the target, when a connector produces more than one.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Port   string `json:"port,omitempty"`
}

// WorkflowGraph is the wire/definition shape: a flat node and edge list
// with no precomputed adjacency.
type WorkflowGraph struct {
	WorkflowID string  `json:"workflow_id"`
	Nodes      []*Node `json:"nodes"`
	Edges      []*Edge `json:"edges"`
}

// Graph is the adjacency-indexed form the engine operates on, built
// once from a WorkflowGraph by BuildGraph.
type Graph struct {
	Nodes map[string]*Node
	Edges []*Edge
}

// BuildGraph indexes a flat WorkflowGraph definition into adjacency
// lists, failing if any edge references a node that doesn't exist.
func BuildGraph(def *WorkflowGraph) (*Graph, error) {
	graph := &Graph{
		Nodes: make(map[string]*Node, len(def.Nodes)),
		Edges: make([]*Edge, 0, len(def.Edges)),
	}

	for _, n := range def.Nodes {
		node := *n
		node.Inputs = make([]string, 0)
		node.Outputs = make([]string, 0)
		graph.Nodes[n.ID] = &node
	}

	for _, e := range def.Edges {
		if _, ok := graph.Nodes[e.Source]; !ok {
			return nil, NewInvalidGraphError("edge references unknown source node: " + e.Source)
		}
		if _, ok := graph.Nodes[e.Target]; !ok {
			return nil, NewInvalidGraphError("edge references unknown target node: " + e.Target)
		}
		graph.Edges = append(graph.Edges, e)
		graph.Nodes[e.Source].Outputs = append(graph.Nodes[e.Source].Outputs, e.Target)
		graph.Nodes[e.Target].Inputs = append(graph.Nodes[e.Target].Inputs, e.Source)
	}

	return graph, nil
}

// NodeLabels builds the id->label map MergeSchemas/MergeEnvelopes use
// to name collision prefixes.
func (g *Graph) NodeLabels() map[string]string {
	labels := make(map[string]string, len(g.Nodes))
	for id, n := range g.Nodes {
		labels[id] = n.Label
	}
	return labels
}
