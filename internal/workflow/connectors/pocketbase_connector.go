package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/util"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// PocketBaseConnector is the record-store source connector: it pages
// through a collection, scoping results to the run's user unless told
// otherwise.
type PocketBaseConnector struct {
	types.BaseConnector
}

func NewPocketBaseSourceConnector() types.Connector {
	configSchema := map[string]interface{}{
		"collection": map[string]interface{}{
			"type":        "string",
			"title":       "Collection",
			"description": "Name of the collection to read from",
			"required":    true,
		},
		"filter": map[string]interface{}{
			"type":        "string",
			"title":       "Filter",
			"description": "Filter expression, conjoined with the user scope unless ignore_user_filter is set",
			"required":    false,
		},
		"sort": map[string]interface{}{
			"type":        "string",
			"title":       "Sort",
			"description": "Sort expression (e.g. -created,title)",
			"default":     "-created",
			"required":    false,
		},
		"batch_size": map[string]interface{}{
			"type":        "number",
			"title":       "Batch Size",
			"default":     float64(100),
			"minimum":     1,
			"maximum":     500,
		},
		"max_records": map[string]interface{}{
			"type":        "number",
			"title":       "Max Records",
			"description": "0 for unlimited",
			"default":     float64(0),
		},
		"ignore_user_filter": map[string]interface{}{
			"type":        "boolean",
			"title":       "Ignore User Filter",
			"default":     false,
		},
	}

	return &PocketBaseConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "pocketbase_source",
			ConnName:     "Record Store Source",
			ConnType:     types.SourceConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *PocketBaseConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	collectionName, ok := c.Config["collection"].(string)
	if !ok || collectionName == "" {
		return nil, fmt.Errorf("collection is required")
	}

	ignoreUserFilter, _ := c.Config["ignore_user_filter"].(bool)

	userID, hasUser := util.GetUserIDFromContext(ctx)
	if !ignoreUserFilter && !hasUser {
		return nil, fmt.Errorf("user id not found in context")
	}

	batchSize := 100
	if val, ok := c.Config["batch_size"].(float64); ok {
		batchSize = int(val)
	}
	if batchSize > 500 {
		batchSize = 500
	}
	if batchSize < 1 {
		batchSize = 1
	}

	maxRecords := 0
	if val, ok := c.Config["max_records"].(float64); ok {
		maxRecords = int(val)
	}

	filter, _ := c.Config["filter"].(string)
	if !ignoreUserFilter {
		userFilter := "user = {:user}"
		if filter != "" {
			filter = fmt.Sprintf("(%s) AND %s", filter, userFilter)
		} else {
			filter = userFilter
		}
	}

	sort := normalizeSort(c.Config["sort"])

	app := store.GetDao()
	if app == nil {
		return nil, fmt.Errorf("record store is not available")
	}

	params := map[string]interface{}{}
	if !ignoreUserFilter {
		params["user"] = userID
	}

	allRecords := make([]map[string]interface{}, 0)
	offset := 0
	for {
		if maxRecords > 0 && len(allRecords) >= maxRecords {
			break
		}

		currentBatch := batchSize
		if maxRecords > 0 && len(allRecords)+batchSize > maxRecords {
			currentBatch = maxRecords - len(allRecords)
		}

		records, err := app.FindRecordsByFilter(collectionName, filter, sort, currentBatch, offset, params)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection %s: %w", collectionName, err)
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			row := make(map[string]interface{})
			for _, fieldName := range fieldNames(record.Collection()) {
				row[fieldName] = record.Get(fieldName)
			}
			row["id"] = record.Id
			allRecords = append(allRecords, row)
		}

		offset += len(records)
		logger.Info.Printf("fetched %d records from %s (total %d)", len(records), collectionName, len(allRecords))

		if len(records) < currentBatch {
			break
		}
	}

	nodeID := c.ID()
	schema := c.collectionSchema(collectionName, nodeID)

	envelope := &types.DataEnvelope{
		Data: allRecords,
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: len(allRecords),
			Schema:      schema,
			Sources:     []string{nodeID},
			Custom: map[string]interface{}{
				"collection":  collectionName,
				"filter":      filter,
				"sort":        sort,
				"max_records": maxRecords,
			},
		},
	}
	return envelope.ToMap(), nil
}

func normalizeSort(raw interface{}) string {
	val, _ := raw.(string)
	if val == "" {
		return "-created"
	}
	fields := strings.Split(val, ",")
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			parts = append(parts, "-"+strings.TrimPrefix(field, "-"))
		} else {
			parts = append(parts, "+"+field)
		}
	}
	if len(parts) == 0 {
		return "-created"
	}
	return strings.Join(parts, ",")
}

func (c *PocketBaseConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema != nil {
		return nil, fmt.Errorf("source connector does not accept input schema")
	}
	collectionName, ok := c.Config["collection"].(string)
	if !ok || collectionName == "" {
		return nil, fmt.Errorf("collection is required")
	}
	schema := c.collectionSchema(collectionName, c.ID())
	return &schema, nil
}

func (c *PocketBaseConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if schema != nil {
		return fmt.Errorf("source connector does not accept input schema")
	}
	return nil
}

// collectionSchema introspects the live collection definition, falling
// back to an empty schema (resolved at runtime via inference) when the
// collection can't be found.
func (c *PocketBaseConnector) collectionSchema(collectionName, nodeID string) types.DataSchema {
	schema := types.DataSchema{
		Fields:      make([]types.FieldDefinition, 0),
		SourceNodes: []string{nodeID},
	}

	app := store.GetDao()
	if app == nil {
		return schema
	}

	collection, err := app.FindCollectionByNameOrId(collectionName)
	if err != nil {
		logger.Info.Printf("could not introspect collection %s: %v", collectionName, err)
		return schema
	}

	for _, field := range collection.Fields {
		name, fieldType, ok := fieldNameAndType(field)
		if !ok {
			continue
		}
		schema.Fields = append(schema.Fields, types.FieldDefinition{
			Name:       name,
			Type:       normalizeRecordFieldType(fieldType),
			SourceNode: nodeID,
			Nullable:   true,
		})
	}
	return schema
}

// fieldNames extracts the declared field names of a collection.
func fieldNames(collection *core.Collection) []string {
	names := make([]string, 0, len(collection.Fields))
	for _, field := range collection.Fields {
		if name, _, ok := fieldNameAndType(field); ok {
			names = append(names, name)
		}
	}
	return names
}

// fieldNameAndType marshals a collection field through JSON to recover
// its name and declared type, mirroring how this codebase's other
// collection-introspection call sites read field schema.
func fieldNameAndType(field core.Field) (string, string, bool) {
	raw, err := json.Marshal(field)
	if err != nil {
		return "", "", false
	}
	var fieldMap map[string]interface{}
	if err := json.Unmarshal(raw, &fieldMap); err != nil {
		return "", "", false
	}
	name, _ := fieldMap["name"].(string)
	fieldType, _ := fieldMap["type"].(string)
	if name == "" {
		return "", "", false
	}
	return name, fieldType, true
}

// normalizeRecordFieldType maps a collection field's declared type to
// the closed set this engine's envelopes carry.
func normalizeRecordFieldType(fieldType string) string {
	switch fieldType {
	case "text", "email", "url", "editor":
		return types.TypeString
	case "number":
		return types.TypeNumber
	case "bool":
		return types.TypeBoolean
	case "date", "select":
		return types.TypeString
	case "json", "relation", "file":
		return types.TypeJSON
	default:
		return types.TypeString
	}
}
