package connectors

import (
	"context"
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func runTransform(t *testing.T, transformations []interface{}, records []map[string]interface{}) map[string]interface{} {
	t.Helper()
	connector := NewTransformConnector()
	if err := connector.Configure(map[string]interface{}{"transformations": transformations}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	input := (&types.DataEnvelope{
		Data: records,
		Metadata: types.Metadata{
			Schema: types.InferSchema(records, "source"),
		},
	}).ToMap()

	out, err := connector.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	return out
}

func TestTransformConnector_RenameCastAdd(t *testing.T) {
	records := []map[string]interface{}{{"a": "10", "b": "x"}}
	transformations := []interface{}{
		map[string]interface{}{"type": "rename", "sourceField": "a", "targetField": "value"},
		map[string]interface{}{"type": "cast", "sourceField": "value", "toType": "number"},
		map[string]interface{}{"type": "add", "targetField": "status", "value": "ok"},
	}

	out := runTransform(t, transformations, records)
	envelope := types.FromMap(out)

	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(envelope.Data))
	}
	result := envelope.Data[0]
	if result["value"] != 10.0 {
		t.Errorf("expected value=10.0, got %v (%T)", result["value"], result["value"])
	}
	if result["b"] != "x" {
		t.Errorf("expected b=x, got %v", result["b"])
	}
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", result["status"])
	}
	if _, exists := result["a"]; exists {
		t.Errorf("expected field a to be renamed away, still present: %v", result)
	}
}

func TestTransformConnector_FilterDropsNonMatchingRecords(t *testing.T) {
	records := []map[string]interface{}{
		{"status": "active"},
		{"status": "inactive"},
		{"status": "active"},
	}
	transformations := []interface{}{
		map[string]interface{}{"type": "filter", "sourceField": "status", "operator": "eq", "value": "active"},
	}

	out := runTransform(t, transformations, records)
	envelope := types.FromMap(out)

	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(envelope.Data))
	}
	for _, rec := range envelope.Data {
		if rec["status"] != "active" {
			t.Errorf("expected only active records to survive, got %v", rec)
		}
	}
}

func TestTransformConnector_FilterNumericComparison(t *testing.T) {
	records := []map[string]interface{}{
		{"age": 15.0},
		{"age": 25.0},
		{"age": 40.0},
	}
	transformations := []interface{}{
		map[string]interface{}{"type": "filter", "sourceField": "age", "operator": "gte", "value": 18.0},
	}

	out := runTransform(t, transformations, records)
	envelope := types.FromMap(out)

	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(envelope.Data))
	}
}

func TestTransformConnector_DeleteAndCopy(t *testing.T) {
	records := []map[string]interface{}{{"keep": "1", "drop": "2"}}
	transformations := []interface{}{
		map[string]interface{}{"type": "copy", "sourceField": "keep", "targetField": "keep_copy"},
		map[string]interface{}{"type": "delete", "sourceField": "drop"},
	}

	out := runTransform(t, transformations, records)
	envelope := types.FromMap(out)
	result := envelope.Data[0]

	if result["keep_copy"] != "1" {
		t.Errorf("expected keep_copy=1, got %v", result["keep_copy"])
	}
	if _, exists := result["drop"]; exists {
		t.Errorf("expected drop field to be removed, got %v", result)
	}
}

func TestTransformConnector_EmptyInputPassesThrough(t *testing.T) {
	out := runTransform(t, []interface{}{
		map[string]interface{}{"type": "rename", "sourceField": "a", "targetField": "b"},
	}, []map[string]interface{}{})

	envelope := types.FromMap(out)
	if len(envelope.Data) != 0 {
		t.Fatalf("expected no records, got %d", len(envelope.Data))
	}
}
