package workflow

import (
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestTopologicalSort_LinearChain(t *testing.T) {
	nodes := []*Node{
		CreateTestNode("A", "csv_source", types.SourceConnector, nil),
		CreateTestNode("B", "transform_processor", types.ProcessorConnector, nil),
		CreateTestNode("C", "csv_destination", types.DestinationConnector, nil),
	}
	edges := []*Edge{CreateTestEdge("A", "B"), CreateTestEdge("B", "C")}
	graph := CreateTestGraph(nodes, edges)

	order, err := TopologicalSort(graph)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 nodes in order, got %d", len(order))
	}
	position := make(map[string]int, len(order))
	for i, n := range order {
		position[n.ID] = i
	}
	if position["A"] > position["B"] || position["B"] > position["C"] {
		t.Fatalf("order violates edges: %v", position)
	}
}

func TestTopologicalSort_CycleRejected(t *testing.T) {
	nodes := []*Node{
		CreateTestNode("A", "csv_source", types.SourceConnector, nil),
		CreateTestNode("B", "transform_processor", types.ProcessorConnector, nil),
		CreateTestNode("C", "transform_processor", types.ProcessorConnector, nil),
	}
	edges := []*Edge{
		CreateTestEdge("A", "B"),
		CreateTestEdge("B", "C"),
		CreateTestEdge("C", "A"),
	}
	graph := CreateTestGraph(nodes, edges)

	_, err := TopologicalSort(graph)
	if err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
	if _, ok := err.(*CyclicGraphError); !ok {
		t.Fatalf("expected *CyclicGraphError, got %T", err)
	}
}

func TestValidateGraph_RequiresSourceAndDestination(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_processor", func() types.Connector { return NewMockConnector("mock_processor", types.ProcessorConnector) })

	nodes := []*Node{CreateTestNode("A", "mock_processor", types.ProcessorConnector, nil)}
	graph := CreateTestGraph(nodes, nil)

	result := ValidateGraph(graph, registry)
	if result.Valid {
		t.Fatal("expected validation to fail without a source or destination")
	}
	if len(result.Errors) < 2 {
		t.Fatalf("expected errors for missing source and destination, got %v", result.Errors)
	}
}

func TestValidateGraph_SourceWithPredecessorsIsInvalid(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector { return NewMockConnector("mock_source", types.SourceConnector) })
	registry.Register("mock_destination", func() types.Connector { return NewMockConnector("mock_destination", types.DestinationConnector) })

	nodes := []*Node{
		CreateTestNode("A", "mock_destination", types.DestinationConnector, nil),
		CreateTestNode("B", "mock_source", types.SourceConnector, nil),
	}
	edges := []*Edge{CreateTestEdge("A", "B")}
	graph := CreateTestGraph(nodes, edges)

	result := ValidateGraph(graph, registry)
	if result.Valid {
		t.Fatal("expected validation to fail when a source node has predecessors")
	}
}

func TestValidateGraph_UnknownConnectorType(t *testing.T) {
	registry := NewConnectorRegistry()
	nodes := []*Node{CreateTestNode("A", "does_not_exist", types.SourceConnector, nil)}
	graph := CreateTestGraph(nodes, nil)

	result := ValidateGraph(graph, registry)
	if result.Valid {
		t.Fatal("expected validation to fail for an unregistered connector type")
	}
}

func TestValidateGraph_ValidMinimalWorkflow(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector { return NewMockConnector("mock_source", types.SourceConnector) })
	registry.Register("mock_destination", func() types.Connector { return NewMockConnector("mock_destination", types.DestinationConnector) })

	nodes := []*Node{
		CreateTestNode("A", "mock_source", types.SourceConnector, nil),
		CreateTestNode("B", "mock_destination", types.DestinationConnector, nil),
	}
	edges := []*Edge{CreateTestEdge("A", "B")}
	graph := CreateTestGraph(nodes, edges)

	result := ValidateGraph(graph, registry)
	if !result.Valid {
		t.Fatalf("expected a valid minimal workflow, got errors: %v", result.Errors)
	}
}
