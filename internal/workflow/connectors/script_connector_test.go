package connectors

import (
	"context"
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestScriptConnector_PerRecordDouble(t *testing.T) {
	connector := NewScriptConnector()
	err := connector.Configure(map[string]interface{}{
		"script": "record.doubled = record.n * 2; return record;",
		"mode":   "per_record",
	})
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	records := []map[string]interface{}{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}}
	input := (&types.DataEnvelope{Data: records}).ToMap()

	out, err := connector.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	envelope := types.FromMap(out)
	if len(envelope.Data) != 3 {
		t.Fatalf("expected 3 records, got %d", len(envelope.Data))
	}
	for i, rec := range envelope.Data {
		n := rec["n"].(float64)
		doubled := rec["doubled"].(float64)
		if doubled != n*2 {
			t.Errorf("record %d: expected doubled=%v, got %v", i, n*2, doubled)
		}
	}

	fieldNamesSeen := map[string]bool{}
	for _, f := range envelope.Metadata.Schema.Fields {
		fieldNamesSeen[f.Name] = true
	}
	if !fieldNamesSeen["n"] || !fieldNamesSeen["doubled"] {
		t.Errorf("expected inferred schema to contain n and doubled, got %v", envelope.Metadata.Schema.Fields)
	}
}

func TestScriptConnector_BatchMode(t *testing.T) {
	connector := NewScriptConnector()
	err := connector.Configure(map[string]interface{}{
		"script": "result = records.filter(function(r) { return r.n > 1; });",
		"mode":   "batch",
	})
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	records := []map[string]interface{}{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}}
	input := (&types.DataEnvelope{Data: records}).ToMap()

	out, err := connector.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	envelope := types.FromMap(out)
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(envelope.Data))
	}
}

func TestScriptConnector_MissingScriptFails(t *testing.T) {
	connector := NewScriptConnector()
	if err := connector.Configure(map[string]interface{}{"mode": "per_record"}); err == nil {
		t.Fatal("expected configure to fail without a script")
	}
}

func TestScriptConnector_ScriptErrorPropagates(t *testing.T) {
	connector := NewScriptConnector()
	if err := connector.Configure(map[string]interface{}{"script": "throw new Error('boom');"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	records := []map[string]interface{}{{"n": 1.0}}
	input := (&types.DataEnvelope{Data: records}).ToMap()

	if _, err := connector.Execute(context.Background(), input); err == nil {
		t.Fatal("expected an error from a throwing script")
	}
}
