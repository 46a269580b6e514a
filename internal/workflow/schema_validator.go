package workflow

import (
	"fmt"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// SchemaValidationError reports an input schema that a connector's
// ValidateInputSchema rejected.
type SchemaValidationError struct {
	NodeID    string
	FieldName string
	Message   string
	Details   string
}

func (e *SchemaValidationError) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf("schema validation error at node %s, field %s: %s", e.NodeID, e.FieldName, e.Message)
	}
	return fmt.Sprintf("schema validation error at node %s: %s", e.NodeID, e.Message)
}

// ValidateSchemaCompatibility checks an input schema against what a
// connector declares it accepts.
func ValidateSchemaCompatibility(connector types.Connector, nodeID string, inputSchema *types.DataSchema) error {
	if schemaAware, ok := connector.(types.SchemaAwareConnector); ok {
		if err := schemaAware.ValidateInputSchema(inputSchema); err != nil {
			return &SchemaValidationError{NodeID: nodeID, Message: "input schema validation failed", Details: err.Error()}
		}
		return nil
	}

	if inputSchema == nil {
		if connector.Type() == types.SourceConnector {
			return nil
		}
		if connector.Type() == types.ProcessorConnector || connector.Type() == types.DestinationConnector {
			return &SchemaValidationError{NodeID: nodeID, Message: "processor/destination connector requires input schema"}
		}
	}

	return nil
}

// ValidateFieldExists reports whether a field is declared in a schema.
func ValidateFieldExists(schema *types.DataSchema, fieldName string) error {
	if schema == nil {
		return fmt.Errorf("schema is nil")
	}
	for _, f := range schema.Fields {
		if f.Name == fieldName {
			return nil
		}
	}
	return fmt.Errorf("field %q not found in schema", fieldName)
}

// ValidateRequiredFields reports every field in requiredFields absent
// from schema.
func ValidateRequiredFields(schema *types.DataSchema, requiredFields []string) error {
	if schema == nil {
		return fmt.Errorf("schema is nil")
	}
	present := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		present[f.Name] = true
	}
	var missing []string
	for _, f := range requiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %v", missing)
	}
	return nil
}

// GetFieldSourceNode returns the node id that contributed a field, or
// "" if the field is absent.
func GetFieldSourceNode(schema *types.DataSchema, fieldName string) string {
	if schema == nil {
		return ""
	}
	for _, f := range schema.Fields {
		if f.Name == fieldName {
			return f.SourceNode
		}
	}
	return ""
}
