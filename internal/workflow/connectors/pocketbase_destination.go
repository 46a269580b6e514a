package connectors

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/util"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// PocketBaseDestinationConnector writes records to a collection in
// batches: create, update (fails a record not found by id_field), or
// upsert.
type PocketBaseDestinationConnector struct {
	types.BaseConnector
}

func NewPocketBaseDestinationConnector() types.Connector {
	configSchema := map[string]interface{}{
		"collection": map[string]interface{}{
			"type":        "string",
			"title":       "Collection",
			"description": "Name of the collection to write to",
			"required":    true,
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"title":       "Write Mode",
			"enum":        []string{"create", "update", "upsert"},
			"default":     "create",
			"required":    false,
		},
		"id_field": map[string]interface{}{
			"type":        "string",
			"title":       "ID Field",
			"default":     "id",
			"required":    false,
		},
		"batch_size": map[string]interface{}{
			"type":        "number",
			"title":       "Batch Size",
			"default":     float64(100),
			"minimum":     1,
			"maximum":     500,
		},
		"user_field": map[string]interface{}{
			"type":        "string",
			"title":       "User Field",
			"description": "Populated with the context user id when the record lacks it",
			"default":     "user",
			"required":    false,
		},
	}

	return &PocketBaseDestinationConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "pocketbase_destination",
			ConnName:     "Record Store Destination",
			ConnType:     types.DestinationConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *PocketBaseDestinationConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	collectionName, ok := c.Config["collection"].(string)
	if !ok || collectionName == "" {
		return nil, fmt.Errorf("collection is required")
	}

	userID, _ := util.GetUserIDFromContext(ctx)

	mode := "create"
	if m, ok := c.Config["mode"].(string); ok && m != "" {
		mode = m
	}

	idField := "id"
	if f, ok := c.Config["id_field"].(string); ok && f != "" {
		idField = f
	}

	batchSize := 100
	if bs, ok := c.Config["batch_size"].(float64); ok {
		batchSize = int(bs)
	}
	if batchSize > 500 {
		batchSize = 500
	}
	if batchSize < 1 {
		batchSize = 1
	}

	userField := "user"
	if uf, ok := c.Config["user_field"].(string); ok {
		userField = uf
	}

	envelope := types.FromMap(input)
	inputData := envelope.Data
	nodeID := c.ID()

	if len(inputData) == 0 {
		logger.Info.Printf("no data to write to collection %s", collectionName)
		return c.emptyResult(nodeID, envelope).ToMap(), nil
	}

	app := store.GetDao()
	if app == nil {
		return nil, fmt.Errorf("record store is not available")
	}
	if _, err := app.FindCollectionByNameOrId(collectionName); err != nil {
		return nil, fmt.Errorf("failed to find collection %s: %w", collectionName, err)
	}

	totalWritten := 0
	totalErrors := 0
	errorSamples := make([]string, 0, 10)

	for i := 0; i < len(inputData); i += batchSize {
		end := i + batchSize
		if end > len(inputData) {
			end = len(inputData)
		}
		batch := inputData[i:end]

		for _, record := range batch {
			recordMap := make(map[string]interface{}, len(record))
			for k, v := range record {
				recordMap[k] = v
			}
			if userField != "" && recordMap[userField] == nil && userID != "" {
				recordMap[userField] = userID
			}

			var writeErr error
			switch mode {
			case "create":
				writeErr = c.createRecord(app, collectionName, recordMap)
			case "update":
				writeErr = c.updateRecord(app, collectionName, recordMap, idField)
			case "upsert":
				writeErr = c.upsertRecord(app, collectionName, recordMap, idField)
			default:
				writeErr = fmt.Errorf("unknown write mode: %s", mode)
			}

			if writeErr != nil {
				totalErrors++
				if len(errorSamples) < 10 {
					errorSamples = append(errorSamples, writeErr.Error())
				}
				continue
			}
			totalWritten++
		}

		logger.Info.Printf("wrote batch to %s: %d records (total %d, errors %d)", collectionName, len(batch), totalWritten, totalErrors)
	}

	if totalWritten == 0 && totalErrors > 0 {
		return nil, fmt.Errorf("failed to write any records to %s: %v", collectionName, errorSamples)
	}

	resultEnvelope := &types.DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: 0,
			Schema:      envelope.Metadata.Schema,
			Sources:     envelope.Metadata.Sources,
			Custom: map[string]interface{}{
				"collection":      collectionName,
				"mode":            mode,
				"records_written": totalWritten,
				"errors":          totalErrors,
				"error_samples":   errorSamples,
			},
		},
	}
	return resultEnvelope.ToMap(), nil
}

func (c *PocketBaseDestinationConnector) createRecord(app core.App, collectionName string, record map[string]interface{}) error {
	collection, err := app.FindCollectionByNameOrId(collectionName)
	if err != nil {
		return fmt.Errorf("collection not found: %w", err)
	}

	recordObj := core.NewRecord(collection)
	for key, value := range record {
		recordObj.Set(key, value)
	}
	if err := app.Save(recordObj); err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (c *PocketBaseDestinationConnector) updateRecord(app core.App, collectionName string, record map[string]interface{}, idField string) error {
	recordID, ok := record[idField].(string)
	if !ok || recordID == "" {
		return fmt.Errorf("missing or invalid %s field for update", idField)
	}

	existing, err := app.FindRecordById(collectionName, recordID)
	if err != nil {
		return fmt.Errorf("record not found for update: %w", err)
	}
	for key, value := range record {
		existing.Set(key, value)
	}
	if err := app.Save(existing); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (c *PocketBaseDestinationConnector) upsertRecord(app core.App, collectionName string, record map[string]interface{}, idField string) error {
	if recordID, ok := record[idField].(string); ok && recordID != "" {
		if existing, err := app.FindRecordById(collectionName, recordID); err == nil {
			for key, value := range record {
				existing.Set(key, value)
			}
			if err := app.Save(existing); err != nil {
				return fmt.Errorf("failed to update record in upsert: %w", err)
			}
			return nil
		}
	}
	return c.createRecord(app, collectionName, record)
}

func (c *PocketBaseDestinationConnector) emptyResult(nodeID string, envelope *types.DataEnvelope) *types.DataEnvelope {
	return &types.DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: 0,
			Schema:      envelope.Metadata.Schema,
			Sources:     envelope.Metadata.Sources,
			Custom:      map[string]interface{}{"records_written": 0, "errors": 0},
		},
	}
}

func (c *PocketBaseDestinationConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema != nil {
		return inputSchema, nil
	}
	schema := types.EmptySchema()
	return &schema, nil
}

func (c *PocketBaseDestinationConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if schema == nil || len(schema.Fields) == 0 {
		return fmt.Errorf("destination connector requires a non-empty input schema")
	}
	return nil
}
