package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/config"
	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestCSVSourceConnector_InfersStringSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	content := "name,age,email\nAlice,30,alice@x\nBob,25,bob@x\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	connector := NewCSVSourceConnector()
	if err := connector.Configure(map[string]interface{}{
		"file_path":  path,
		"has_header": true,
		"delimiter":  ",",
	}); err != nil {
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

	fields := make(map[string]types.FieldDefinition, len(envelope.Metadata.Schema.Fields))
	for _, f := range envelope.Metadata.Schema.Fields {
		fields[f.Name] = f
	}
	for _, name := range []string{"name", "age", "email"} {
		f, ok := fields[name]
		if !ok {
			t.Fatalf("expected field %s in schema, got %v", name, envelope.Metadata.Schema.Fields)
		}
		if f.Type != types.TypeString {
			t.Errorf("expected field %s to be type string, got %s", name, f.Type)
		}
	}

	if envelope.Metadata.Custom["file_path"] != path {
		t.Errorf("expected custom.file_path to equal resolved path, got %v", envelope.Metadata.Custom["file_path"])
	}
}

func TestCSVDestinationConnector_WritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	store.SetConfig(&config.Config{DataDir: dir, ResultsDir: dir})
	defer store.SetConfig(nil)

	connector := NewCSVDestinationConnector()
	if err := connector.Configure(map[string]interface{}{
		"file_path":      "out.csv",
		"include_header": true,
	}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	input := (&types.DataEnvelope{
		Data: []map[string]interface{}{{"name": "Alice", "age": "30"}},
		Metadata: types.Metadata{
			Schema: types.DataSchema{Fields: []types.FieldDefinition{{Name: "name"}, {Name: "age"}}},
		},
	}).ToMap()

	if _, err := connector.Execute(context.Background(), input); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
	if got := string(written); got != "name,age\nAlice,30\n" {
		t.Errorf("unexpected CSV output: %q", got)
	}
}

func TestCSVSourceConnector_DeclaresOutputSchemaFromFirstRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	content := "name,age,email\nAlice,30,alice@x\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	connector := NewCSVSourceConnector()
	if err := connector.Configure(map[string]interface{}{"file_path": path}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	schemaAware := connector.(types.SchemaAwareConnector)
	if err := schemaAware.ValidateInputSchema(nil); err != nil {
		t.Fatalf("expected a source to accept a nil input schema, got %v", err)
	}

	schema, err := schemaAware.GetOutputSchema(nil)
	if err != nil {
		t.Fatalf("unexpected error declaring output schema: %v", err)
	}
	if len(schema.Fields) != 3 {
		t.Fatalf("expected 3 declared fields from the header row, got %v", schema.Fields)
	}
	for _, f := range schema.Fields {
		if f.Type != types.TypeString || !f.Nullable {
			t.Errorf("expected field %s to be a nullable string, got %+v", f.Name, f)
		}
	}
}

func TestCSVSourceConnector_HasHeaderDefaultsTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	content := "name,age\nAlice,30\nBob,25\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	connector := NewCSVSourceConnector()
	// has_header deliberately omitted: the config schema declares it
	// defaults to true, so the header row must not be treated as data.
	if err := connector.Configure(map[string]interface{}{"file_path": path}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	out, err := connector.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	envelope := types.FromMap(out)
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 data rows with the header row excluded, got %d: %v", len(envelope.Data), envelope.Data)
	}
}

func TestCSVDestinationConnector_RejectsEmptyDeclaredSchema(t *testing.T) {
	connector := NewCSVDestinationConnector()
	if err := connector.Configure(map[string]interface{}{"file_path": "out.csv"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	schemaAware := connector.(types.SchemaAwareConnector)
	if err := schemaAware.ValidateInputSchema(nil); err == nil {
		t.Fatal("expected a destination to reject a nil declared input schema")
	}
	empty := types.EmptySchema()
	if err := schemaAware.ValidateInputSchema(&empty); err == nil {
		t.Fatal("expected a destination to reject an empty declared input schema")
	}

	nonEmpty := types.DataSchema{Fields: []types.FieldDefinition{{Name: "name", Type: types.TypeString}}}
	if err := schemaAware.ValidateInputSchema(&nonEmpty); err != nil {
		t.Fatalf("expected a destination to accept a non-empty declared input schema, got %v", err)
	}
}

func TestCSVDestinationConnector_RejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	store.SetConfig(&config.Config{DataDir: dir, ResultsDir: dir})
	defer store.SetConfig(nil)

	connector := NewCSVDestinationConnector()
	if err := connector.Configure(map[string]interface{}{"file_path": "out.csv"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	input := (&types.DataEnvelope{Data: []map[string]interface{}{}}).ToMap()
	if _, err := connector.Execute(context.Background(), input); err == nil {
		t.Fatal("expected an error when writing zero records")
	}
}
