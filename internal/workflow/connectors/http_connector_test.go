package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestHTTPSourceConnector_DecodesDataArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "1"}, {"id": "2"}},
		})
	}))
	defer server.Close()

	connector := NewHTTPSourceConnector()
	if err := connector.Configure(map[string]interface{}{"url": server.URL}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	out, err := connector.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	envelope := types.FromMap(out)
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 records, got %d", len(envelope.Data))
	}
}

func TestHTTPSourceConnector_DecodesTopLevelArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"id": "1"}})
	}))
	defer server.Close()

	connector := NewHTTPSourceConnector()
	if err := connector.Configure(map[string]interface{}{"url": server.URL}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	out, err := connector.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	envelope := types.FromMap(out)
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(envelope.Data))
	}
}

func TestHTTPSourceConnector_AppliesTimeoutDefault(t *testing.T) {
	connector := NewHTTPSourceConnector().(*HTTPConnector)
	// timeout deliberately omitted: the config schema declares a
	// default of 30s, which must reach the underlying client.
	if err := connector.Configure(map[string]interface{}{"url": "http://example.invalid"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if connector.client.Timeout.Seconds() != 30 {
		t.Fatalf("expected the declared 30s timeout default to be applied, got %v", connector.client.Timeout)
	}
}

func TestHTTPDestinationConnector_RejectsEmptyDeclaredSchema(t *testing.T) {
	connector := NewHTTPDestinationConnector()
	schemaAware := connector.(types.SchemaAwareConnector)

	if err := schemaAware.ValidateInputSchema(nil); err == nil {
		t.Fatal("expected a destination to reject a nil declared input schema")
	}
	empty := types.EmptySchema()
	if err := schemaAware.ValidateInputSchema(&empty); err == nil {
		t.Fatal("expected a destination to reject an empty declared input schema")
	}
}

func TestHTTPDestinationConnector_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	connector := NewHTTPDestinationConnector()
	if err := connector.Configure(map[string]interface{}{
		"url":            server.URL,
		"retry_attempts": float64(2),
		"retry_delay_ms": float64(10),
		"batch_size":     float64(0),
	}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	input := (&types.DataEnvelope{Data: []map[string]interface{}{{"a": 1}, {"a": 2}}}).ToMap()
	out, err := connector.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 requests, got %d", attempts)
	}

	envelope := types.FromMap(out)
	if envelope.Metadata.Custom["records_sent"] != float64(2) && envelope.Metadata.Custom["records_sent"] != 2 {
		t.Errorf("expected records_sent=2, got %v", envelope.Metadata.Custom["records_sent"])
	}
	if envelope.Metadata.Custom["errors"] != float64(0) && envelope.Metadata.Custom["errors"] != 0 {
		t.Errorf("expected errors=0, got %v", envelope.Metadata.Custom["errors"])
	}
}

func TestHTTPDestinationConnector_FourHundredDoesNotRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	connector := NewHTTPDestinationConnector()
	if err := connector.Configure(map[string]interface{}{
		"url":            server.URL,
		"retry_attempts": float64(3),
		"retry_delay_ms": float64(10),
	}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	input := (&types.DataEnvelope{Data: []map[string]interface{}{{"a": 1}}}).ToMap()
	if _, err := connector.Execute(context.Background(), input); err == nil {
		t.Fatal("expected an error for an all-batches-failed send")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 request for a non-retryable 4xx, got %d", attempts)
	}
}
