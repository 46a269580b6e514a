package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func newLinearWorkflow() *WorkflowGraph {
	return &WorkflowGraph{
		WorkflowID: "wf-1",
		Nodes: []*Node{
			{ID: "A", Label: "source", Type: "source", ConnectorTypeID: "mock_source"},
			{ID: "B", Label: "dest", Type: "destination", ConnectorTypeID: "mock_destination"},
		},
		Edges: []*Edge{{Source: "A", Target: "B"}},
	}
}

func TestEngine_ExecuteHappyPath(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector {
		return NewMockConnector("mock_source", types.SourceConnector).
			WithOutputData([]map[string]interface{}{{"id": "1"}, {"id": "2"}}).
			WithOutputSchema(&types.DataSchema{Fields: []types.FieldDefinition{{Name: "id", Type: types.TypeString}}})
	})
	registry.Register("mock_destination", func() types.Connector {
		return NewMockConnector("mock_destination", types.DestinationConnector)
	})

	engine := NewWorkflowEngine(registry)
	results, outcome, err := engine.Execute(context.Background(), newLinearWorkflow(), "run-1", "user-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("expected OutcomeCompleted, got %s", outcome)
	}
	if _, ok := results["A"]; !ok {
		t.Fatalf("expected a result for node A, got %v", results)
	}
	if _, ok := results["B"]; !ok {
		t.Fatalf("expected a result for node B, got %v", results)
	}
}

func TestEngine_ExecuteRejectsCyclicGraph(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_processor", func() types.Connector {
		return NewMockConnector("mock_processor", types.ProcessorConnector)
	})

	def := &WorkflowGraph{
		WorkflowID: "wf-cycle",
		Nodes: []*Node{
			{ID: "A", ConnectorTypeID: "mock_processor"},
			{ID: "B", ConnectorTypeID: "mock_processor"},
		},
		Edges: []*Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "A"}},
	}

	engine := NewWorkflowEngine(registry)
	_, outcome, err := engine.Execute(context.Background(), def, "run-2", "", 0)
	if err == nil {
		t.Fatal("expected an error for a cyclic graph")
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %s", outcome)
	}

	// Neither node is a source or destination, so ValidateGraph would
	// also reject this graph on its own terms. Cycle detection must
	// still win: it runs before any connector is instantiated.
	if _, ok := err.(*CyclicGraphError); !ok {
		t.Fatalf("expected a CyclicGraphError even though the graph also lacks a source/destination, got %T: %v", err, err)
	}
}

func TestEngine_ContinueOnErrorTolerance(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector {
		failing := NewMockConnector("mock_source", types.SourceConnector)
		failing.ExecuteFunc = func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, errBoom
		}
		return failing
	})
	registry.Register("mock_destination", func() types.Connector {
		return NewMockConnector("mock_destination", types.DestinationConnector)
	})

	def := newLinearWorkflow()
	def.Nodes[0].Config = map[string]interface{}{"continue_on_error": true}

	engine := NewWorkflowEngine(registry)
	results, outcome, err := engine.Execute(context.Background(), def, "run-3", "", 0)
	if err != nil {
		t.Fatalf("unexpected error with continue_on_error set: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("expected OutcomeCompleted, got %s", outcome)
	}
	if env, ok := results["A"]; !ok || env.Metadata.Custom["error"] == nil {
		t.Fatalf("expected node A's result to carry the tolerated error, got %v", results["A"])
	}
}

func TestEngine_DeclaresAndCachesSchemasBeforeExecution(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector {
		return NewMockConnector("mock_source", types.SourceConnector).
			WithOutputData([]map[string]interface{}{{"id": "1"}}).
			WithOutputSchema(&types.DataSchema{Fields: []types.FieldDefinition{{Name: "id", Type: types.TypeString}}})
	})
	registry.Register("mock_destination", func() types.Connector {
		return NewMockConnector("mock_destination", types.DestinationConnector)
	})

	engine := NewWorkflowEngine(registry)
	_, outcome, err := engine.Execute(context.Background(), newLinearWorkflow(), "run-cache", "user-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("expected OutcomeCompleted, got %s", outcome)
	}

	emptyConfigHash := computeConfigHash(map[string]interface{}{})
	schema, ok := engine.SchemaCache().Get("A", emptyConfigHash, []string{})
	if !ok {
		t.Fatal("expected node A's declared output schema to be cached after a run")
	}
	if len(schema.Fields) != 1 || schema.Fields[0].Name != "id" {
		t.Fatalf("expected the cached schema to carry node A's declared 'id' field, got %v", schema.Fields)
	}
}

func TestEngine_RejectsEmptyDeclaredSchemaIntoDestination(t *testing.T) {
	registry := NewConnectorRegistry()
	registry.Register("mock_source", func() types.Connector {
		// No WithOutputSchema: GetOutputSchema declares an empty schema,
		// the same as a connector whose shape can only be known at
		// runtime (an HTTP response, a script).
		return NewMockConnector("mock_source", types.SourceConnector)
	})
	registry.Register("mock_destination", func() types.Connector {
		destination := NewMockConnector("mock_destination", types.DestinationConnector)
		destination.ValidateInputFunc = func(schema *types.DataSchema) error {
			if schema == nil || len(schema.Fields) == 0 {
				return fmt.Errorf("destination connector requires a non-empty input schema")
			}
			return nil
		}
		return destination
	})

	engine := NewWorkflowEngine(registry)
	_, outcome, err := engine.Execute(context.Background(), newLinearWorkflow(), "run-reject", "", 0)
	if err == nil {
		t.Fatal("expected an error when a destination's declared input schema is empty")
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %s", outcome)
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Fatalf("expected a SchemaError, got %T: %v", err, err)
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
