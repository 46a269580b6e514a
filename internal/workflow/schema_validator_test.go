package workflow

import (
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestValidateSchemaCompatibility_SchemaAwareConnectorDelegates(t *testing.T) {
	connector := NewMockConnector("mock", types.ProcessorConnector)
	connector.ValidateInputFunc = func(schema *types.DataSchema) error {
		return ValidateRequiredFields(schema, []string{"id"})
	}

	schema := types.DataSchema{Fields: []types.FieldDefinition{{Name: "id"}}}
	if err := ValidateSchemaCompatibility(connector, "node-a", &schema); err != nil {
		t.Fatalf("expected compatible schema to pass, got %v", err)
	}

	empty := types.EmptySchema()
	err := ValidateSchemaCompatibility(connector, "node-a", &empty)
	if err == nil {
		t.Fatal("expected an error for a schema missing the required field")
	}
	if _, ok := err.(*SchemaValidationError); !ok {
		t.Fatalf("expected *SchemaValidationError, got %T", err)
	}
}

func TestValidateSchemaCompatibility_DefaultValidateInputAcceptsNilSchema(t *testing.T) {
	connector := NewMockConnector("mock_source", types.SourceConnector)
	if err := ValidateSchemaCompatibility(connector, "node-a", nil); err != nil {
		t.Fatalf("expected the default ValidateInputSchema to accept a nil schema, got %v", err)
	}
}

func TestValidateFieldExists(t *testing.T) {
	schema := &types.DataSchema{Fields: []types.FieldDefinition{{Name: "id"}, {Name: "name"}}}
	if err := ValidateFieldExists(schema, "name"); err != nil {
		t.Fatalf("expected name to exist, got %v", err)
	}
	if err := ValidateFieldExists(schema, "missing"); err == nil {
		t.Fatal("expected an error for a missing field")
	}
}

func TestValidateRequiredFields_ReportsAllMissing(t *testing.T) {
	schema := &types.DataSchema{Fields: []types.FieldDefinition{{Name: "id"}}}
	err := ValidateRequiredFields(schema, []string{"id", "name", "email"})
	if err == nil {
		t.Fatal("expected an error listing missing fields")
	}
}

func TestGetFieldSourceNode(t *testing.T) {
	schema := &types.DataSchema{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "A"}}}
	if got := GetFieldSourceNode(schema, "id"); got != "A" {
		t.Errorf("expected source node A, got %q", got)
	}
	if got := GetFieldSourceNode(schema, "missing"); got != "" {
		t.Errorf("expected empty source node for a missing field, got %q", got)
	}
}
