// Package types holds the data shapes every connector consumes and
// produces (the envelope/schema model) together with the connector
// capability set and registry contract. Keeping both in one package
// mirrors the teacher's internal/services/workflow/types package, which
// held the envelope/schema model alone; the connector contract is folded
// in here because every connector file in this codebase imports types
// for both concerns anyway.
package types

import (
	"time"
)

// FieldDefinition describes a single field of a schema.
type FieldDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	SourceNode  string `json:"source_node"`
	Nullable    bool   `json:"nullable"`
	Description string `json:"description"`
}

// Canonical field type tags. A field's Type is always one of these.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeJSON    = "json"
)

// DataSchema is an ordered sequence of field definitions plus the set of
// node ids that contributed a field.
type DataSchema struct {
	Fields      []FieldDefinition `json:"fields"`
	SourceNodes []string          `json:"source_nodes"`
}

// EmptySchema returns a schema declared "inferred at runtime": no fields,
// no source nodes. Sources that cannot introspect statically return this
// from GetOutputSchema.
func EmptySchema() DataSchema {
	return DataSchema{
		Fields:      make([]FieldDefinition, 0),
		SourceNodes: make([]string, 0),
	}
}

// Metadata carries per-envelope provenance and execution information.
type Metadata struct {
	NodeID          string                 `json:"node_id"`
	NodeType        string                 `json:"node_type"`
	Schema          DataSchema             `json:"schema"`
	RecordCount     int                    `json:"record_count"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	Sources         []string               `json:"sources"`
	Custom          map[string]interface{} `json:"custom"`
}

// DataEnvelope is the unit of dataflow between nodes: records plus
// metadata (schema, provenance, timing, free-form custom data).
type DataEnvelope struct {
	Data     []map[string]interface{} `json:"data"`
	Metadata Metadata                 `json:"metadata"`
}

// NewEmptyEnvelope returns the zero-value canonical envelope used as
// input for source nodes (which have no predecessors).
func NewEmptyEnvelope() *DataEnvelope {
	return &DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: Metadata{
			Schema:  EmptySchema(),
			Sources: make([]string, 0),
			Custom:  make(map[string]interface{}),
		},
	}
}

// ToMap serializes the envelope to its canonical neutral mapping, with
// exactly the two top-level keys "data" and "metadata". Every nested
// value is built out of maps/slices/primitives so that FromMap can
// recover the envelope without a JSON round trip.
func (e *DataEnvelope) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"data":     dataToGeneric(e.Data),
		"metadata": metadataToMap(e.Metadata),
	}
}

func dataToGeneric(data []map[string]interface{}) []interface{} {
	out := make([]interface{}, len(data))
	for i, rec := range data {
		out[i] = rec
	}
	return out
}

func metadataToMap(m Metadata) map[string]interface{} {
	custom := m.Custom
	if custom == nil {
		custom = make(map[string]interface{})
	}
	sources := m.Sources
	if sources == nil {
		sources = make([]string, 0)
	}
	return map[string]interface{}{
		"node_id":           m.NodeID,
		"node_type":         m.NodeType,
		"schema":            schemaToMap(m.Schema),
		"record_count":      m.RecordCount,
		"execution_time_ms": m.ExecutionTimeMs,
		"sources":           sources,
		"custom":            custom,
	}
}

func schemaToMap(s DataSchema) map[string]interface{} {
	fields := make([]interface{}, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = map[string]interface{}{
			"name":        f.Name,
			"type":        f.Type,
			"source_node": f.SourceNode,
			"nullable":    f.Nullable,
			"description": f.Description,
		}
	}
	sourceNodes := s.SourceNodes
	if sourceNodes == nil {
		sourceNodes = make([]string, 0)
	}
	return map[string]interface{}{
		"fields":       fields,
		"source_nodes": sourceNodes,
	}
}

// FromMap parses a mapping into an envelope, tolerant of two mapping
// shapes: the canonical {data, metadata} mapping and a legacy mapping
// with "records" instead of "data". A raw sequence of records is handled
// by FromSequence instead. Missing metadata fields receive zero values.
func FromMap(input map[string]interface{}) *DataEnvelope {
	envelope := NewEmptyEnvelope()

	if input == nil {
		return envelope
	}

	if rawData, ok := input["data"]; ok {
		envelope.Data = toRecordSlice(rawData)
	} else if rawRecords, ok := input["records"]; ok {
		envelope.Data = toRecordSlice(rawRecords)
	}

	if rawMeta, ok := input["metadata"]; ok {
		envelope.Metadata = parseMetadata(rawMeta)
	} else {
		envelope.Metadata.RecordCount = len(envelope.Data)
		if collection, ok := input["collection"].(string); ok {
			envelope.Metadata.Custom["collection"] = collection
		}
	}

	return envelope
}

// FromSequence builds an envelope from a bare sequence of records (the
// "raw array" legacy shape, which FromMap does not accept).
func FromSequence(records []interface{}) *DataEnvelope {
	envelope := NewEmptyEnvelope()
	envelope.Data = toRecordSlice(records)
	envelope.Metadata.RecordCount = len(envelope.Data)
	return envelope
}

func toRecordSlice(raw interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0)
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if rec, ok := item.(map[string]interface{}); ok {
				out = append(out, rec)
			}
		}
	case []map[string]interface{}:
		out = append(out, v...)
	}
	return out
}

func parseMetadata(raw interface{}) Metadata {
	m := Metadata{
		Schema:  EmptySchema(),
		Sources: make([]string, 0),
		Custom:  make(map[string]interface{}),
	}

	switch meta := raw.(type) {
	case Metadata:
		return meta
	case map[string]interface{}:
		if v, ok := meta["node_id"].(string); ok {
			m.NodeID = v
		}
		if v, ok := meta["node_type"].(string); ok {
			m.NodeType = v
		}
		m.RecordCount = toInt(meta["record_count"])
		m.ExecutionTimeMs = toInt64(meta["execution_time_ms"])
		if schemaRaw, ok := meta["schema"]; ok {
			m.Schema = parseSchema(schemaRaw)
		}
		if sourcesRaw, ok := meta["sources"]; ok {
			m.Sources = toStringSlice(sourcesRaw)
		}
		if customRaw, ok := meta["custom"].(map[string]interface{}); ok {
			m.Custom = customRaw
		}
	}
	return m
}

func parseSchema(raw interface{}) DataSchema {
	schema := EmptySchema()

	switch s := raw.(type) {
	case DataSchema:
		return s
	case map[string]interface{}:
		if fieldsRaw, ok := s["fields"]; ok {
			schema.Fields = parseFields(fieldsRaw)
		}
		if sourceNodesRaw, ok := s["source_nodes"]; ok {
			schema.SourceNodes = toStringSlice(sourceNodesRaw)
		}
	}
	return schema
}

func parseFields(raw interface{}) []FieldDefinition {
	fields := make([]FieldDefinition, 0)
	items, ok := raw.([]interface{})
	if !ok {
		return fields
	}
	for _, item := range items {
		fieldMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		f := FieldDefinition{}
		if v, ok := fieldMap["name"].(string); ok {
			f.Name = v
		}
		if v, ok := fieldMap["type"].(string); ok {
			f.Type = v
		}
		if v, ok := fieldMap["source_node"].(string); ok {
			f.SourceNode = v
		}
		if v, ok := fieldMap["nullable"].(bool); ok {
			f.Nullable = v
		}
		if v, ok := fieldMap["description"].(string); ok {
			f.Description = v
		}
		fields = append(fields, f)
	}
	return fields
}

func toStringSlice(raw interface{}) []string {
	out := make([]string, 0)
	items, ok := raw.([]interface{})
	if !ok {
		if strs, ok := raw.([]string); ok {
			return strs
		}
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInt(raw interface{}) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toInt64(raw interface{}) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// InferFieldType maps a single decoded value to its canonical type tag.
func InferFieldType(value interface{}) string {
	if value == nil {
		return TypeString
	}
	switch v := value.(type) {
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeNumber
	case float32, float64:
		return TypeNumber
	case time.Time:
		return TypeDate
	case string:
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return TypeDate
		}
		return TypeString
	case []interface{}, map[string]interface{}:
		return TypeJSON
	default:
		return TypeJSON
	}
}

// InferSchema scans records and derives a schema using the first-value
// rule: the first observation of a field decides its type; any later
// null observation marks it nullable.
func InferSchema(records []map[string]interface{}, producingNodeID string) DataSchema {
	schema := EmptySchema()
	if producingNodeID != "" {
		schema.SourceNodes = []string{producingNodeID}
	}
	if len(records) == 0 {
		return schema
	}

	seen := make(map[string]int) // name -> index into schema.Fields
	for _, record := range records {
		for name, value := range record {
			if idx, ok := seen[name]; ok {
				if value == nil {
					schema.Fields[idx].Nullable = true
				}
				continue
			}
			schema.Fields = append(schema.Fields, FieldDefinition{
				Name:       name,
				Type:       InferFieldType(value),
				SourceNode: producingNodeID,
				Nullable:   value == nil,
			})
			seen[name] = len(schema.Fields) - 1
		}
	}
	return schema
}
