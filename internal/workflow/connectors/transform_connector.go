package connectors

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// TransformConnector applies an ordered sequence of field-level
// transformations to every input record.
type TransformConnector struct {
	types.BaseConnector
}

func NewTransformConnector() types.Connector {
	schema := map[string]interface{}{
		"transformations": map[string]interface{}{
			"type":        "array",
			"title":       "Transformations",
			"description": "Ordered list of transformations to apply to each record",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"type": map[string]interface{}{
						"type": "string",
						"enum": []string{
							"rename", "delete", "add", "modify", "cast", "filter",
							"copy", "lowercase", "uppercase", "trim", "replace",
							"concat", "split", "format_date", "parse_date",
						},
						"required": true,
					},
					"sourceField": map[string]interface{}{"type": "string"},
					"targetField": map[string]interface{}{"type": "string"},
					"value":       map[string]interface{}{"type": "string"},
					"expression":  map[string]interface{}{"type": "string"},
					"operator": map[string]interface{}{
						"type": "string",
						"enum": []string{"eq", "neq", "gt", "gte", "lt", "lte", "contains"},
					},
					"toType":     map[string]interface{}{"type": "string", "enum": []string{"string", "number", "boolean", "date"}},
					"separator":  map[string]interface{}{"type": "string", "default": ","},
					"dateFormat": map[string]interface{}{"type": "string", "default": "2006-01-02"},
					"oldValue":   map[string]interface{}{"type": "string"},
					"newValue":   map[string]interface{}{"type": "string"},
				},
				"required": []string{"type"},
			},
		},
	}

	return &TransformConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "transform_processor",
			ConnName:     "Transform Processor",
			ConnType:     types.ProcessorConnector,
			ConfigSchema: schema,
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *TransformConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	envelope := types.FromMap(input)
	if len(envelope.Data) == 0 {
		return envelope.ToMap(), nil
	}

	transformations, err := c.getTransformations()
	if err != nil {
		return nil, fmt.Errorf("failed to parse transformations: %w", err)
	}
	if len(transformations) == 0 {
		return envelope.ToMap(), nil
	}

	transformed := make([]map[string]interface{}, 0, len(envelope.Data))
	for _, record := range envelope.Data {
		result, keep, err := c.applyTransformations(record, transformations)
		if err != nil {
			return nil, fmt.Errorf("failed to apply transformations: %w", err)
		}
		if !keep {
			continue
		}
		transformed = append(transformed, result)
	}

	outputSchema := c.computeOutputSchema(envelope.Metadata.Schema, transformations)

	nodeID := c.ID()
	outputEnvelope := &types.DataEnvelope{
		Data: transformed,
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: len(transformed),
			Schema:      outputSchema,
			Sources:     envelope.Metadata.Sources,
			Custom: map[string]interface{}{
				"transformations_applied": len(transformations),
				"input_record_count":      envelope.Metadata.RecordCount,
			},
		},
	}
	return outputEnvelope.ToMap(), nil
}

func (c *TransformConnector) getTransformations() ([]map[string]interface{}, error) {
	raw, exists := c.Config["transformations"]
	if !exists {
		return []map[string]interface{}{}, nil
	}

	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("transformations must be an array")
	}

	transformations := make([]map[string]interface{}, 0, len(arr))
	for i, t := range arr {
		transformation, ok := t.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transformation at index %d must be an object", i)
		}
		transType, ok := transformation["type"].(string)
		if !ok || transType == "" {
			return nil, fmt.Errorf("transformation at index %d must have a type", i)
		}
		transformations = append(transformations, transformation)
	}
	return transformations, nil
}

// applyTransformations applies every transformation to a copy of record
// in order; a failing filter drops the record entirely (keep=false).
func (c *TransformConnector) applyTransformations(
	record map[string]interface{},
	transformations []map[string]interface{},
) (map[string]interface{}, bool, error) {
	result := make(map[string]interface{}, len(record))
	for k, v := range record {
		result[k] = v
	}

	for _, transformation := range transformations {
		transType, _ := transformation["type"].(string)
		sourceField, _ := transformation["sourceField"].(string)
		targetField, _ := transformation["targetField"].(string)

		var err error
		switch transType {
		case "rename":
			err = applyRename(result, sourceField, targetField)
		case "delete":
			err = applyDelete(result, sourceField)
		case "add":
			err = applyAdd(result, targetField, transformation)
		case "modify":
			err = applyModify(result, sourceField, transformation)
		case "cast":
			err = applyCast(result, sourceField, targetField, transformation)
		case "filter":
			passes, filterErr := evaluateFilter(result, sourceField, transformation)
			if filterErr != nil {
				return nil, false, filterErr
			}
			if !passes {
				return nil, false, nil
			}
		case "copy":
			err = applyCopy(result, sourceField, targetField)
		case "lowercase":
			err = applyLowercase(result, sourceField)
		case "uppercase":
			err = applyUppercase(result, sourceField)
		case "trim":
			err = applyTrim(result, sourceField)
		case "replace":
			err = applyReplace(result, sourceField, transformation)
		case "concat":
			err = applyConcat(result, sourceField, targetField, transformation)
		case "split":
			err = applySplit(result, sourceField, targetField, transformation)
		case "format_date":
			err = applyFormatDate(result, sourceField, targetField, transformation)
		case "parse_date":
			err = applyParseDate(result, sourceField, targetField, transformation)
		default:
			return nil, false, fmt.Errorf("unknown transformation type: %s", transType)
		}
		if err != nil {
			return nil, false, fmt.Errorf("transformation %s failed: %w", transType, err)
		}
	}

	return result, true, nil
}

func applyRename(record map[string]interface{}, sourceField, targetField string) error {
	if sourceField == "" || targetField == "" {
		return fmt.Errorf("rename requires both sourceField and targetField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	record[targetField] = value
	delete(record, sourceField)
	return nil
}

func applyDelete(record map[string]interface{}, sourceField string) error {
	if sourceField == "" {
		return fmt.Errorf("delete requires sourceField")
	}
	delete(record, sourceField)
	return nil
}

func applyAdd(record map[string]interface{}, targetField string, transformation map[string]interface{}) error {
	if targetField == "" {
		return fmt.Errorf("add requires targetField")
	}
	if value, ok := transformation["value"]; ok && value != nil {
		record[targetField] = value
		return nil
	}
	if expression, ok := transformation["expression"].(string); ok && expression != "" {
		record[targetField] = evaluateExpression(record, expression)
		return nil
	}
	record[targetField] = ""
	return nil
}

func applyModify(record map[string]interface{}, sourceField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("modify requires sourceField")
	}
	if _, exists := record[sourceField]; !exists {
		return nil
	}
	if expression, ok := transformation["expression"].(string); ok && expression != "" {
		record[sourceField] = evaluateExpression(record, expression)
		return nil
	}
	if newValue, ok := transformation["value"]; ok && newValue != nil {
		record[sourceField] = newValue
		return nil
	}
	return fmt.Errorf("modify requires either expression or value")
}

func applyCast(record map[string]interface{}, sourceField, targetField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("cast requires sourceField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	toType, ok := transformation["toType"].(string)
	if !ok || toType == "" {
		return fmt.Errorf("cast requires toType")
	}
	casted, err := castValue(value, toType)
	if err != nil {
		return fmt.Errorf("failed to cast value: %w", err)
	}
	if targetField != "" && targetField != sourceField {
		record[targetField] = casted
		delete(record, sourceField)
	} else {
		record[sourceField] = casted
	}
	return nil
}

func applyCopy(record map[string]interface{}, sourceField, targetField string) error {
	if sourceField == "" || targetField == "" {
		return fmt.Errorf("copy requires both sourceField and targetField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	record[targetField] = value
	return nil
}

func applyLowercase(record map[string]interface{}, sourceField string) error {
	if sourceField == "" {
		return fmt.Errorf("lowercase requires sourceField")
	}
	if str, ok := record[sourceField].(string); ok {
		record[sourceField] = strings.ToLower(str)
	}
	return nil
}

func applyUppercase(record map[string]interface{}, sourceField string) error {
	if sourceField == "" {
		return fmt.Errorf("uppercase requires sourceField")
	}
	if str, ok := record[sourceField].(string); ok {
		record[sourceField] = strings.ToUpper(str)
	}
	return nil
}

func applyTrim(record map[string]interface{}, sourceField string) error {
	if sourceField == "" {
		return fmt.Errorf("trim requires sourceField")
	}
	if str, ok := record[sourceField].(string); ok {
		record[sourceField] = strings.TrimSpace(str)
	}
	return nil
}

func applyReplace(record map[string]interface{}, sourceField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("replace requires sourceField")
	}
	if str, ok := record[sourceField].(string); ok {
		oldValue, _ := transformation["oldValue"].(string)
		newValue, _ := transformation["newValue"].(string)
		record[sourceField] = strings.ReplaceAll(str, oldValue, newValue)
	}
	return nil
}

func applyConcat(record map[string]interface{}, sourceField, targetField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("concat requires sourceField")
	}
	separator := ","
	if sep, ok := transformation["separator"].(string); ok && sep != "" {
		separator = sep
	}

	fields := []string{sourceField}
	if targetField != "" && strings.Contains(targetField, ",") {
		fields = strings.Split(targetField, ",")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
	}

	values := make([]string, 0, len(fields))
	for _, field := range fields {
		if val, exists := record[field]; exists {
			values = append(values, fmt.Sprintf("%v", val))
		}
	}
	result := strings.Join(values, separator)

	if targetField != "" && !strings.Contains(targetField, ",") {
		record[targetField] = result
	} else {
		record[sourceField] = result
	}
	return nil
}

func applySplit(record map[string]interface{}, sourceField, targetField string, transformation map[string]interface{}) error {
	if sourceField == "" || targetField == "" {
		return fmt.Errorf("split requires both sourceField and targetField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	separator := ","
	if sep, ok := transformation["separator"].(string); ok && sep != "" {
		separator = sep
	}
	if str, ok := value.(string); ok {
		record[targetField] = strings.Split(str, separator)
	}
	return nil
}

var dateParseFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

func applyFormatDate(record map[string]interface{}, sourceField, targetField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("format_date requires sourceField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	dateFormat := "2006-01-02"
	if format, ok := transformation["dateFormat"].(string); ok && format != "" {
		dateFormat = format
	}

	var dateTime time.Time
	var err error
	switch v := value.(type) {
	case string:
		for _, format := range dateParseFormats {
			dateTime, err = time.Parse(format, v)
			if err == nil {
				break
			}
		}
		if err != nil {
			return fmt.Errorf("failed to parse date: %w", err)
		}
	case float64:
		dateTime = time.Unix(int64(v), 0)
	case int64:
		dateTime = time.Unix(v, 0)
	case int:
		dateTime = time.Unix(int64(v), 0)
	default:
		return fmt.Errorf("unsupported date type: %T", v)
	}

	formatted := dateTime.Format(dateFormat)
	if targetField != "" && targetField != sourceField {
		record[targetField] = formatted
		delete(record, sourceField)
	} else {
		record[sourceField] = formatted
	}
	return nil
}

func applyParseDate(record map[string]interface{}, sourceField, targetField string, transformation map[string]interface{}) error {
	if sourceField == "" {
		return fmt.Errorf("parse_date requires sourceField")
	}
	value, exists := record[sourceField]
	if !exists {
		return nil
	}
	dateFormat := "2006-01-02"
	if format, ok := transformation["dateFormat"].(string); ok && format != "" {
		dateFormat = format
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	parsed, err := time.Parse(dateFormat, str)
	if err != nil {
		return fmt.Errorf("failed to parse date: %w", err)
	}
	if targetField != "" && targetField != sourceField {
		record[targetField] = parsed.Format(time.RFC3339)
		delete(record, sourceField)
	} else {
		record[sourceField] = parsed.Format(time.RFC3339)
	}
	return nil
}

// evaluateFilter reports whether record passes the filter's comparison;
// false means the record is dropped entirely.
func evaluateFilter(record map[string]interface{}, sourceField string, transformation map[string]interface{}) (bool, error) {
	if sourceField == "" {
		return false, fmt.Errorf("filter requires sourceField")
	}
	operator, _ := transformation["operator"].(string)
	if operator == "" {
		return false, fmt.Errorf("filter requires operator")
	}
	target := transformation["value"]

	actual, exists := record[sourceField]
	if !exists {
		if operator == "neq" {
			return true, nil
		}
		return false, nil
	}

	switch operator {
	case "eq":
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", target), nil
	case "neq":
		return fmt.Sprintf("%v", actual) != fmt.Sprintf("%v", target), nil
	case "contains":
		actualStr, _ := actual.(string)
		targetStr := fmt.Sprintf("%v", target)
		return strings.Contains(actualStr, targetStr), nil
	case "gt", "gte", "lt", "lte":
		actualNum, ok1 := toFloat(actual)
		targetNum, ok2 := toFloat(target)
		if !ok1 || !ok2 {
			return false, fmt.Errorf("operator %s requires numeric operands", operator)
		}
		switch operator {
		case "gt":
			return actualNum > targetNum, nil
		case "gte":
			return actualNum >= targetNum, nil
		case "lt":
			return actualNum < targetNum, nil
		default:
			return actualNum <= targetNum, nil
		}
	default:
		return false, fmt.Errorf("unknown filter operator: %s", operator)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func castValue(value interface{}, toType string) (interface{}, error) {
	switch toType {
	case "string":
		return fmt.Sprintf("%v", value), nil
	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to number: %w", v, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot convert %T to number", value)
		}
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strings.ToLower(v) == "true" || v == "1", nil
		case float64:
			return v != 0, nil
		case int:
			return v != 0, nil
		default:
			return false, nil
		}
	case "date":
		if str, ok := value.(string); ok {
			return str, nil
		}
		return fmt.Sprintf("%v", value), nil
	default:
		return nil, fmt.Errorf("unknown target type: %s", toType)
	}
}

// evaluateExpression substitutes ${field} occurrences with the
// record's stringified value. No arithmetic is evaluated: the result
// is always a string, per the baseline substitution-only contract.
func evaluateExpression(record map[string]interface{}, expression string) string {
	result := expression
	for field, value := range record {
		placeholder := fmt.Sprintf("${%s}", field)
		if strings.Contains(result, placeholder) {
			result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
		}
	}
	return result
}

// computeOutputSchema applies the schema-evolution rules for each
// transformation type to the input schema's field set.
func (c *TransformConnector) computeOutputSchema(inputSchema types.DataSchema, transformations []map[string]interface{}) types.DataSchema {
	fieldMap := make(map[string]types.FieldDefinition, len(inputSchema.Fields))
	for _, field := range inputSchema.Fields {
		fieldMap[field.Name] = field
	}

	for _, transformation := range transformations {
		transType, _ := transformation["type"].(string)
		sourceField, _ := transformation["sourceField"].(string)
		targetField, _ := transformation["targetField"].(string)

		switch transType {
		case "rename":
			if sourceField != "" && targetField != "" {
				if field, exists := fieldMap[sourceField]; exists {
					field.Name = targetField
					if field.Description == "" {
						field.Description = fmt.Sprintf("renamed from %s", sourceField)
					} else {
						field.Description = fmt.Sprintf("%s (renamed from %s)", field.Description, sourceField)
					}
					fieldMap[targetField] = field
					delete(fieldMap, sourceField)
				}
			}
		case "delete":
			delete(fieldMap, sourceField)
		case "add":
			if targetField != "" {
				fieldMap[targetField] = types.FieldDefinition{Name: targetField, Type: types.TypeString, Nullable: true}
			}
		case "cast":
			if sourceField != "" {
				if field, exists := fieldMap[sourceField]; exists {
					if toType, ok := transformation["toType"].(string); ok {
						field.Type = toType
					}
					if targetField != "" && targetField != sourceField {
						field.Name = targetField
						fieldMap[targetField] = field
						delete(fieldMap, sourceField)
					} else {
						fieldMap[sourceField] = field
					}
				}
			}
		case "copy":
			if sourceField != "" && targetField != "" {
				if field, exists := fieldMap[sourceField]; exists {
					fieldMap[targetField] = types.FieldDefinition{
						Name:        targetField,
						Type:        field.Type,
						SourceNode:  field.SourceNode,
						Nullable:    field.Nullable,
						Description: fmt.Sprintf("copy of %s", field.Name),
					}
				}
			}
			// filter and the remaining string/date ops leave the field shape untouched.
		}
	}

	outputSchema := types.DataSchema{
		Fields:      make([]types.FieldDefinition, 0, len(fieldMap)),
		SourceNodes: inputSchema.SourceNodes,
	}
	for _, field := range fieldMap {
		outputSchema.Fields = append(outputSchema.Fields, field)
	}
	return outputSchema
}

func (c *TransformConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema == nil {
		schema := types.EmptySchema()
		return &schema, nil
	}
	transformations, err := c.getTransformations()
	if err != nil {
		return nil, fmt.Errorf("failed to parse transformations: %w", err)
	}
	outputSchema := c.computeOutputSchema(*inputSchema, transformations)
	return &outputSchema, nil
}

func (c *TransformConnector) ValidateInputSchema(schema *types.DataSchema) error {
	return nil
}
