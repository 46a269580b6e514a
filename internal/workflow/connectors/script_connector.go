package connectors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// ScriptConnector evaluates a sandboxed JavaScript snippet against each
// record (per_record mode) or the whole batch at once (batch mode). The
// VM it builds has no host I/O and no ambient environment access:
// console.log is wired to a no-op so scripts can't exfiltrate anything
// through it, and nothing else is bound besides the record(s) variable.
type ScriptConnector struct {
	types.BaseConnector
}

func NewScriptConnector() types.Connector {
	schema := map[string]interface{}{
		"script": map[string]interface{}{
			"type":        "string",
			"title":       "Script",
			"description": "JavaScript run per record (variable 'record') or per batch (variable 'records'). Assign 'result' or fall through to return the input unchanged.",
			"required":    true,
		},
		"language": map[string]interface{}{
			"type":    "string",
			"title":   "Language",
			"enum":    []string{"javascript"},
			"default": "javascript",
		},
		"mode": map[string]interface{}{
			"type":    "string",
			"title":   "Execution Mode",
			"enum":    []string{"per_record", "batch"},
			"default": "per_record",
		},
	}

	return &ScriptConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "script_processor",
			ConnName:     "Script Processor",
			ConnType:     types.ProcessorConnector,
			ConfigSchema: schema,
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *ScriptConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	envelope := types.FromMap(input)
	if len(envelope.Data) == 0 {
		return envelope.ToMap(), nil
	}

	script, ok := c.Config["script"].(string)
	if !ok || script == "" {
		return nil, fmt.Errorf("script is required")
	}

	mode := "per_record"
	if modeVal, ok := c.Config["mode"].(string); ok && modeVal != "" {
		mode = modeVal
	}

	var transformed []map[string]interface{}
	var err error
	if mode == "batch" {
		transformed, err = executeBatchScript(envelope.Data, script)
	} else {
		transformed, err = executePerRecordScript(envelope.Data, script)
	}
	if err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}

	outputSchema := types.InferSchema(transformed, "")
	outputSchema.SourceNodes = envelope.Metadata.Schema.SourceNodes

	nodeID := c.ID()
	scriptPreview := script
	if len(scriptPreview) > 100 {
		scriptPreview = scriptPreview[:100]
	}

	outputEnvelope := &types.DataEnvelope{
		Data: transformed,
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: len(transformed),
			Schema:      outputSchema,
			Sources:     envelope.Metadata.Sources,
			Custom: map[string]interface{}{
				"mode":   mode,
				"script": scriptPreview,
			},
		},
	}
	return outputEnvelope.ToMap(), nil
}

// GetOutputSchema declares an empty schema: a script's output shape is
// only known once it runs, so it is inferred from the produced records.
func (c *ScriptConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	schema := types.EmptySchema()
	return &schema, nil
}

func (c *ScriptConnector) ValidateInputSchema(schema *types.DataSchema) error {
	return nil
}

func executePerRecordScript(records []map[string]interface{}, script string) ([]map[string]interface{}, error) {
	transformed := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		result, err := runScriptOnRecord(record, script)
		if err != nil {
			return nil, err
		}
		transformed = append(transformed, result)
	}
	return transformed, nil
}

func executeBatchScript(records []map[string]interface{}, script string) ([]map[string]interface{}, error) {
	result, err := runScriptOnRecords(records, script)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case []map[string]interface{}:
		return v, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			} else {
				return nil, fmt.Errorf("script returned a non-record element")
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("script must return a record or a sequence of records")
	}
}

func newSandboxedVM() *goja.Runtime {
	vm := goja.New()
	console := vm.NewObject()
	console.Set("log", func(args ...interface{}) {})
	vm.Set("console", console)
	return vm
}

func runScriptOnRecord(record map[string]interface{}, script string) (map[string]interface{}, error) {
	vm := newSandboxedVM()
	if err := vm.Set("record", record); err != nil {
		return nil, fmt.Errorf("failed to bind record: %w", err)
	}

	wrapped := fmt.Sprintf(`(function() {
		%s
		if (typeof result !== 'undefined') { return result; }
		return record;
	})()`, script)

	value, err := vm.RunString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	result, err := gojaValueToMap(value)
	if err != nil {
		return nil, fmt.Errorf("script returned a non-record value: %w", err)
	}
	return result, nil
}

func runScriptOnRecords(records []map[string]interface{}, script string) (interface{}, error) {
	vm := newSandboxedVM()
	if err := vm.Set("records", records); err != nil {
		return nil, fmt.Errorf("failed to bind records: %w", err)
	}

	wrapped := fmt.Sprintf(`(function() {
		%s
		if (typeof result !== 'undefined') { return result; }
		return records;
	})()`, script)

	value, err := vm.RunString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	return gojaValueToInterface(value)
}

func gojaValueToMap(value goja.Value) (map[string]interface{}, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, fmt.Errorf("script returned no value")
	}

	// Always round-trip through JSON so integer results (exported by goja
	// as int64) come back as float64 like every other number.
	exported := value.Export()
	jsonBytes, err := json.Marshal(exported)
	if err == nil {
		var m map[string]interface{}
		if err := json.Unmarshal(jsonBytes, &m); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("value is not a record")
}

func gojaValueToInterface(value goja.Value) (interface{}, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	return value.Export(), nil
}
