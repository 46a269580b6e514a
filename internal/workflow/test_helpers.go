package workflow

import (
	"context"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// MockConnector is a configurable stand-in used by the engine and
// validator tests: it returns canned output data/schema, or defers to
// ExecuteFunc/ValidateInputFunc when set.
type MockConnector struct {
	types.BaseConnector
	OutputSchema      *types.DataSchema
	OutputData        []map[string]interface{}
	ExecuteFunc       func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
	ValidateInputFunc func(schema *types.DataSchema) error
}

func NewMockConnector(id string, connType types.ConnectorType) *MockConnector {
	return &MockConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       id,
			ConnName:     "Mock " + id,
			ConnType:     connType,
			ConfigSchema: make(map[string]interface{}),
			Config:       make(map[string]interface{}),
		},
		OutputData: make([]map[string]interface{}, 0),
	}
}

func (m *MockConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, input)
	}

	nodeID := m.ID()
	schema := m.OutputSchema
	if schema == nil {
		empty := types.EmptySchema()
		schema = &empty
	}

	envelope := &types.DataEnvelope{
		Data: m.OutputData,
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    m.ConnID,
			RecordCount: len(m.OutputData),
			Schema:      *schema,
			Sources:     []string{nodeID},
			Custom:      make(map[string]interface{}),
		},
	}
	return envelope.ToMap(), nil
}

func (m *MockConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if m.OutputSchema != nil {
		return m.OutputSchema, nil
	}
	empty := types.EmptySchema()
	return &empty, nil
}

func (m *MockConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if m.ValidateInputFunc != nil {
		return m.ValidateInputFunc(schema)
	}
	return nil
}

func (m *MockConnector) WithOutputSchema(schema *types.DataSchema) *MockConnector {
	m.OutputSchema = schema
	return m
}

func (m *MockConnector) WithOutputData(data []map[string]interface{}) *MockConnector {
	m.OutputData = data
	return m
}

// NewMockRegistry builds a types.ConnectorRegistry pre-populated with
// nothing; tests Register connectors into it directly.
func NewMockRegistry() types.ConnectorRegistry {
	return NewConnectorRegistry()
}

// CreateTestNode builds a graph node for validator/engine tests without
// requiring every field an on-disk workflow definition would carry.
func CreateTestNode(id, connectorTypeID string, connType types.ConnectorType, config map[string]interface{}) *Node {
	if config == nil {
		config = make(map[string]interface{})
	}
	return &Node{
		ID:              id,
		Label:           id,
		Type:            string(connType),
		ConnectorTypeID: connectorTypeID,
		Config:          config,
	}
}

func CreateTestEdge(source, target string) *Edge {
	return &Edge{Source: source, Target: target}
}

// CreateTestGraph indexes nodes/edges the same way BuildGraph does,
// without requiring a WorkflowGraph wire definition.
func CreateTestGraph(nodes []*Node, edges []*Edge) *Graph {
	graph := &Graph{
		Nodes: make(map[string]*Node, len(nodes)),
		Edges: edges,
	}
	for _, n := range nodes {
		node := *n
		node.Inputs = make([]string, 0)
		node.Outputs = make([]string, 0)
		graph.Nodes[n.ID] = &node
	}
	for _, e := range edges {
		graph.Nodes[e.Source].Outputs = append(graph.Nodes[e.Source].Outputs, e.Target)
		graph.Nodes[e.Target].Inputs = append(graph.Nodes[e.Target].Inputs, e.Source)
	}
	return graph
}

func CreateTestSchema(fields []types.FieldDefinition, sourceNodes []string) types.DataSchema {
	return types.DataSchema{Fields: fields, SourceNodes: sourceNodes}
}

func CreateTestField(name, fieldType, sourceNode string) types.FieldDefinition {
	return types.FieldDefinition{Name: name, Type: fieldType, SourceNode: sourceNode, Nullable: true}
}
