package types

import "context"

// ConnectorType tags a connector's role in the graph. The engine uses it
// only for graph-validation rules: sources refuse predecessors,
// destinations refuse successors.
type ConnectorType string

const (
	SourceConnector      ConnectorType = "source"
	ProcessorConnector   ConnectorType = "processor"
	DestinationConnector ConnectorType = "destination"
)

// Connector is the capability set every node in a workflow graph
// implements, regardless of whether it reads, transforms, or writes
// records.
type Connector interface {
	ID() string
	Name() string
	Type() ConnectorType
	GetConfigSchema() map[string]interface{}
	Configure(config map[string]interface{}) error
	GetOutputSchema(inputSchema *DataSchema) (*DataSchema, error)
	ValidateInputSchema(schema *DataSchema) error
	Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// SchemaAwareConnector is an optional refinement checked via type
// assertion; every connector in this codebase implements it, but the
// interface stays separate from Connector so that GetOutputSchema and
// ValidateInputSchema can be treated as advisory by callers that only
// need the base capability set.
type SchemaAwareConnector interface {
	GetOutputSchema(inputSchema *DataSchema) (*DataSchema, error)
	ValidateInputSchema(schema *DataSchema) error
}

// BaseConnector is embedded by every concrete connector and supplies the
// bookkeeping fields (id/name/type/config schema/config) and their
// trivial accessors, so connector implementations only need to override
// Execute, GetOutputSchema, and ValidateInputSchema.
type BaseConnector struct {
	ConnID       string
	ConnName     string
	ConnType     ConnectorType
	ConfigSchema map[string]interface{}
	Config       map[string]interface{}
}

func (b *BaseConnector) ID() string   { return b.ConnID }
func (b *BaseConnector) Name() string { return b.ConnName }
func (b *BaseConnector) Type() ConnectorType { return b.ConnType }

func (b *BaseConnector) GetConfigSchema() map[string]interface{} {
	return b.ConfigSchema
}

// Configure applies the config schema's declared defaults for any field
// the caller omitted, validates required fields, and stores the result.
// It is idempotent: calling it again replaces the stored config
// wholesale, recomputing defaults from scratch.
func (b *BaseConnector) Configure(config map[string]interface{}) error {
	merged := make(map[string]interface{}, len(b.ConfigSchema)+len(config))
	for key, rawDef := range b.ConfigSchema {
		def, ok := rawDef.(map[string]interface{})
		if !ok {
			continue
		}
		if def["default"] != nil {
			merged[key] = def["default"]
		}
	}
	for key, value := range config {
		merged[key] = value
	}

	for key, rawDef := range b.ConfigSchema {
		def, ok := rawDef.(map[string]interface{})
		if !ok {
			continue
		}
		required, _ := def["required"].(bool)
		if !required {
			continue
		}
		if _, present := merged[key]; !present {
			return &ConfigMissingFieldError{Field: key}
		}
	}

	b.Config = merged
	return nil
}

// ConfigMissingFieldError is returned by BaseConnector.Configure when a
// field the connector's schema marks required is absent. Connectors
// that need a more specific message construct their own ConfigError
// instead of relying on this default.
type ConfigMissingFieldError struct {
	Field string
}

func (e *ConfigMissingFieldError) Error() string {
	return "missing required config field: " + e.Field
}

// ConnectorFactory produces a fresh, unconfigured connector instance.
type ConnectorFactory func() Connector

// ConnectorInfo is the shape List() returns per registered connector.
type ConnectorInfo struct {
	ID     string
	Name   string
	Type   ConnectorType
	Config map[string]interface{}
}

// ConnectorRegistry is a process-wide, read-only-after-startup mapping
// from connector type id to factory.
type ConnectorRegistry interface {
	Register(id string, factory ConnectorFactory)
	Get(id string) (Connector, error)
	List() []ConnectorInfo
}
