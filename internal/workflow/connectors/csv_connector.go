package connectors

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// CSVConnector reads or writes a tabular-file (CSV-like) data set
// depending on which factory constructed it.
type CSVConnector struct {
	types.BaseConnector
}

func NewCSVSourceConnector() types.Connector {
	configSchema := map[string]interface{}{
		"file_path": map[string]interface{}{
			"type":        "string",
			"title":       "File Path",
			"description": "Path to the CSV file (uploads/{filename}.csv for uploaded files)",
			"required":    true,
		},
		"has_header": map[string]interface{}{
			"type":        "boolean",
			"title":       "Has Header",
			"description": "Whether the CSV file has a header row",
			"default":     true,
			"required":    false,
		},
		"delimiter": map[string]interface{}{
			"type":        "string",
			"title":       "Delimiter",
			"description": "Field delimiter (comma, semicolon, tab, etc.)",
			"default":     ",",
			"required":    false,
		},
		"comment": map[string]interface{}{
			"type":        "string",
			"title":       "Comment Character",
			"description": "Character that marks the start of a comment line",
			"required":    false,
		},
	}

	return &CSVConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "csv_source",
			ConnName:     "CSV Source",
			ConnType:     types.SourceConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
	}
}

func NewCSVDestinationConnector() types.Connector {
	configSchema := map[string]interface{}{
		"file_path": map[string]interface{}{
			"type":        "string",
			"title":       "File Path",
			"description": "Path to the CSV file (uploads/{filename}.csv for uploaded files)",
			"required":    true,
		},
		"delimiter": map[string]interface{}{
			"type":        "string",
			"title":       "Delimiter",
			"description": "Field delimiter (comma, semicolon, tab, etc.)",
			"default":     ",",
			"required":    false,
		},
		"include_header": map[string]interface{}{
			"type":        "boolean",
			"title":       "Include Header",
			"description": "Whether to include a header row in the CSV file",
			"default":     true,
			"required":    false,
		},
		"append": map[string]interface{}{
			"type":        "boolean",
			"title":       "Append",
			"description": "Append to the file instead of truncating it",
			"default":     false,
			"required":    false,
		},
	}

	return &CSVConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "csv_destination",
			ConnName:     "CSV Destination",
			ConnType:     types.DestinationConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *CSVConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	filePath, ok := c.Config["file_path"].(string)
	if !ok || filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}

	switch c.Type() {
	case types.SourceConnector:
		return c.readCSV(filePath, c.Config)
	case types.DestinationConnector:
		return c.writeCSV(filePath, c.Config, input)
	default:
		return nil, fmt.Errorf("unsupported connector type: %s", c.Type())
	}
}

// resolveFilePath mirrors the external-interfaces rule: paths under
// "uploads/" resolve relative to the data directory, every other
// destination path resolves under <data_dir>/storage/workflow_results.
func (c *CSVConnector) resolveFilePath(filePath string) string {
	if strings.HasPrefix(filePath, "uploads/") {
		return filepath.Join(store.DataDir(), filePath)
	}

	if c.Type() == types.DestinationConnector {
		resultsDir := store.ResultsDir()
		if err := os.MkdirAll(resultsDir, 0755); err != nil {
			return filePath
		}
		return filepath.Join(resultsDir, filePath)
	}

	return filePath
}

func (c *CSVConnector) readCSV(filePath string, config map[string]interface{}) (map[string]interface{}, error) {
	resolvedPath := c.resolveFilePath(filePath)

	file, err := os.Open(resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if delimiter, ok := config["delimiter"].(string); ok && len(delimiter) > 0 {
		reader.Comma = rune(delimiter[0])
	}
	if comment, ok := config["comment"].(string); ok && len(comment) > 0 {
		reader.Comment = rune(comment[0])
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	schema := types.EmptySchema()
	result := make([]map[string]interface{}, 0)
	hasHeader := true
	if v, ok := config["has_header"].(bool); ok {
		hasHeader = v
	}

	if len(records) == 0 {
		envelope := &types.DataEnvelope{
			Data: result,
			Metadata: types.Metadata{
				NodeType: c.ConnID,
				Schema:   schema,
				Sources:  []string{},
				Custom:   map[string]interface{}{"file_path": resolvedPath},
			},
		}
		return envelope.ToMap(), nil
	}

	if hasHeader {
		headers := records[0]
		for _, header := range headers {
			schema.Fields = append(schema.Fields, types.FieldDefinition{Name: header, Type: types.TypeString, Nullable: true})
		}
		for i := 1; i < len(records); i++ {
			row := make(map[string]interface{}, len(headers))
			for j, value := range records[i] {
				if j < len(headers) {
					row[headers[j]] = value
				} else {
					row[fmt.Sprintf("column_%d", j+1)] = value
				}
			}
			result = append(result, row)
		}
	} else {
		columnCount := len(records[0])
		for j := 0; j < columnCount; j++ {
			schema.Fields = append(schema.Fields, types.FieldDefinition{Name: fmt.Sprintf("column_%d", j+1), Type: types.TypeString, Nullable: true})
		}
		for _, record := range records {
			row := make(map[string]interface{}, len(record))
			for j, value := range record {
				row[fmt.Sprintf("column_%d", j+1)] = value
			}
			result = append(result, row)
		}
	}

	envelope := &types.DataEnvelope{
		Data: result,
		Metadata: types.Metadata{
			NodeType:    c.ConnID,
			RecordCount: len(result),
			Schema:      schema,
			Sources:     []string{},
			Custom:      map[string]interface{}{"file_path": resolvedPath},
		},
	}
	return envelope.ToMap(), nil
}

func (c *CSVConnector) writeCSV(filePath string, config map[string]interface{}, input map[string]interface{}) (map[string]interface{}, error) {
	resolvedPath := c.resolveFilePath(filePath)
	envelope := types.FromMap(input)

	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("no data provided for CSV output")
	}

	var headers []string
	if len(envelope.Metadata.Schema.Fields) > 0 {
		headers = make([]string, 0, len(envelope.Metadata.Schema.Fields))
		for _, field := range envelope.Metadata.Schema.Fields {
			headers = append(headers, field.Name)
		}
	}

	rows, inferredHeaders := convertToCSVRows(envelope.Data, headers)
	if len(headers) == 0 {
		headers = inferredHeaders
	}

	appendMode, _ := config["append"].(bool)
	var fileMode int
	if appendMode {
		fileMode = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	} else {
		fileMode = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	if err := os.MkdirAll(filepath.Dir(resolvedPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(resolvedPath, fileMode, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file for writing: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if delimiter, ok := config["delimiter"].(string); ok && len(delimiter) > 0 {
		writer.Comma = rune(delimiter[0])
	}

	includeHeader, _ := config["include_header"].(bool)
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	if includeHeader && (!appendMode || info.Size() == 0) {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	outputEnvelope := &types.DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: types.Metadata{
			NodeType:    c.ConnID,
			RecordCount: len(rows),
			Schema:      types.EmptySchema(),
			Sources:     envelope.Metadata.Sources,
			Custom:      map[string]interface{}{"file_path": resolvedPath, "success": true},
		},
	}
	return outputEnvelope.ToMap(), nil
}

func (c *CSVConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if c.Type() == types.SourceConnector {
		if inputSchema != nil {
			return nil, fmt.Errorf("source connector does not accept input schema")
		}
		schema := c.peekSchema()
		return &schema, nil
	}
	if inputSchema != nil {
		return inputSchema, nil
	}
	schema := types.EmptySchema()
	return &schema, nil
}

func (c *CSVConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if c.Type() == types.SourceConnector {
		if schema != nil {
			return fmt.Errorf("source connector does not accept input schema")
		}
		return nil
	}
	if schema == nil || len(schema.Fields) == 0 {
		return fmt.Errorf("destination connector requires a non-empty input schema")
	}
	return nil
}

// peekSchema declares the source's output shape by reading only the
// first row of the configured file, without loading the rest of the
// data set. Falls back to an empty schema (signalling "inferred at
// execution time") when the file can't yet be read, mirroring the
// declared-schema contract every other source follows.
func (c *CSVConnector) peekSchema() types.DataSchema {
	schema := types.EmptySchema()

	filePath, ok := c.Config["file_path"].(string)
	if !ok || filePath == "" {
		return schema
	}

	file, err := os.Open(c.resolveFilePath(filePath))
	if err != nil {
		return schema
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if delimiter, ok := c.Config["delimiter"].(string); ok && len(delimiter) > 0 {
		reader.Comma = rune(delimiter[0])
	}
	if comment, ok := c.Config["comment"].(string); ok && len(comment) > 0 {
		reader.Comment = rune(comment[0])
	}

	row, err := reader.Read()
	if err != nil {
		return schema
	}

	hasHeader := true
	if v, ok := c.Config["has_header"].(bool); ok {
		hasHeader = v
	}

	if hasHeader {
		for _, name := range row {
			schema.Fields = append(schema.Fields, types.FieldDefinition{Name: name, Type: types.TypeString, Nullable: true})
		}
	} else {
		for i := range row {
			schema.Fields = append(schema.Fields, types.FieldDefinition{Name: fmt.Sprintf("column_%d", i+1), Type: types.TypeString, Nullable: true})
		}
	}
	return schema
}

// convertToCSVRows flattens records to string rows using the provided
// header order, or the union of keys observed across records if none
// was given.
func convertToCSVRows(records []map[string]interface{}, providedHeaders []string) ([][]string, []string) {
	headers := providedHeaders
	if len(headers) == 0 {
		seen := make(map[string]bool)
		for _, record := range records {
			for key := range record {
				if !seen[key] {
					seen[key] = true
					headers = append(headers, key)
				}
			}
		}
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			if val, ok := record[h]; ok && val != nil {
				row[i] = fmt.Sprintf("%v", val)
			}
		}
		rows = append(rows, row)
	}
	return rows, headers
}
