package connectors

import (
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestPocketBaseDestinationConnector_RejectsEmptyDeclaredSchema(t *testing.T) {
	connector := NewPocketBaseDestinationConnector()
	schemaAware := connector.(types.SchemaAwareConnector)

	if err := schemaAware.ValidateInputSchema(nil); err == nil {
		t.Fatal("expected a destination to reject a nil declared input schema")
	}
	empty := types.EmptySchema()
	if err := schemaAware.ValidateInputSchema(&empty); err == nil {
		t.Fatal("expected a destination to reject an empty declared input schema")
	}

	nonEmpty := types.DataSchema{Fields: []types.FieldDefinition{{Name: "name", Type: types.TypeString}}}
	if err := schemaAware.ValidateInputSchema(&nonEmpty); err != nil {
		t.Fatalf("expected a destination to accept a non-empty declared input schema, got %v", err)
	}
}
