package workflow

import (
	"testing"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestAggregateInputs_ZeroOneAndMultiplePredecessors(t *testing.T) {
	if env := AggregateInputs(nil, nil); len(env.Data) != 0 {
		t.Fatalf("expected an empty envelope for zero predecessors, got %v", env.Data)
	}

	single := &types.DataEnvelope{Data: []map[string]interface{}{{"a": 1}}}
	if got := AggregateInputs([]*types.DataEnvelope{single}, nil); got != single {
		t.Fatalf("expected the single predecessor's envelope to pass through unchanged")
	}

	a := &types.DataEnvelope{
		Data:     []map[string]interface{}{{"id": "1"}},
		Metadata: types.Metadata{NodeID: "A", Schema: types.DataSchema{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "A"}}}},
	}
	b := &types.DataEnvelope{
		Data:     []map[string]interface{}{{"id": "2"}},
		Metadata: types.Metadata{NodeID: "B", Schema: types.DataSchema{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "B"}}}},
	}
	merged := AggregateInputs([]*types.DataEnvelope{a, b}, map[string]string{"A": "nodea", "B": "nodeb"})
	if len(merged.Data) != 2 {
		t.Fatalf("expected 2 merged records, got %d", len(merged.Data))
	}
}

func TestMergeSchemas_RenamesConflictingFieldNames(t *testing.T) {
	schemas := []types.DataSchema{
		{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "A"}}, SourceNodes: []string{"A"}},
		{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "B"}}, SourceNodes: []string{"B"}},
	}
	merged := MergeSchemas(schemas, map[string]string{"A": "nodea", "B": "nodeb"})

	names := make(map[string]bool, len(merged.Fields))
	for _, f := range merged.Fields {
		names[f.Name] = true
	}
	if names["id"] {
		t.Fatalf("expected conflicting field 'id' to be renamed, got fields %v", merged.Fields)
	}
	if len(merged.Fields) != 2 {
		t.Fatalf("expected 2 renamed fields, got %v", merged.Fields)
	}
}

func TestNodeLabel_UsesLabelVerbatim(t *testing.T) {
	if got := NodeLabel("node-12345678", "Customer Feed"); got != "Customer Feed" {
		t.Fatalf("expected the label to be used verbatim, got %q", got)
	}
	if got := NodeLabel("node-12345678", "  padded  "); got != "padded" {
		t.Fatalf("expected surrounding whitespace trimmed, got %q", got)
	}
	if got := NodeLabel("node-12345678", ""); got != "node-12345678" {
		t.Fatalf("expected a blank label to fall back to the node id, got %q", got)
	}
}

func TestMergeSchemas_UsesNodeLabelVerbatimOnCollision(t *testing.T) {
	schemas := []types.DataSchema{
		{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "nodeA"}}, SourceNodes: []string{"nodeA"}},
		{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "nodeB"}}, SourceNodes: []string{"nodeB"}},
	}
	merged := MergeSchemas(schemas, map[string]string{"nodeA": "Customer Feed", "nodeB": "Orders Feed"})

	names := make(map[string]bool, len(merged.Fields))
	for _, f := range merged.Fields {
		names[f.Name] = true
	}
	if !names["Customer Feed_id"] || !names["Orders Feed_id"] {
		t.Fatalf("expected collision-renamed fields to carry the label verbatim, got %v", merged.Fields)
	}
}

func TestMergeSchemas_NonConflictingNamesUntouched(t *testing.T) {
	schemas := []types.DataSchema{
		{Fields: []types.FieldDefinition{{Name: "id", SourceNode: "A"}}, SourceNodes: []string{"A"}},
		{Fields: []types.FieldDefinition{{Name: "email", SourceNode: "B"}}, SourceNodes: []string{"B"}},
	}
	merged := MergeSchemas(schemas, nil)

	names := make(map[string]bool, len(merged.Fields))
	for _, f := range merged.Fields {
		names[f.Name] = true
	}
	if !names["id"] || !names["email"] {
		t.Fatalf("expected both untouched field names, got %v", merged.Fields)
	}
}

func TestMergeEnvelopes_ConcatenatesDataAndUnionsSources(t *testing.T) {
	a := &types.DataEnvelope{
		Data:     []map[string]interface{}{{"v": 1}},
		Metadata: types.Metadata{NodeID: "A", Sources: []string{"A"}},
	}
	b := &types.DataEnvelope{
		Data:     []map[string]interface{}{{"v": 2}, {"v": 3}},
		Metadata: types.Metadata{NodeID: "B", Sources: []string{"B"}},
	}

	merged := MergeEnvelopes([]*types.DataEnvelope{a, b}, nil)
	if len(merged.Data) != 3 {
		t.Fatalf("expected 3 concatenated records, got %d", len(merged.Data))
	}
	if merged.Metadata.RecordCount != 3 {
		t.Errorf("expected record count 3, got %d", merged.Metadata.RecordCount)
	}
	if len(merged.Metadata.Sources) != 2 {
		t.Errorf("expected 2 unioned sources, got %v", merged.Metadata.Sources)
	}
}
