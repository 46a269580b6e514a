package workflow

import (
	"testing"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

func TestSchemaCache_SetThenGetHit(t *testing.T) {
	cache := NewSchemaCache(time.Minute, 10)
	schema := &types.DataSchema{Fields: []types.FieldDefinition{{Name: "id"}}}
	configHash := computeConfigHash(map[string]interface{}{"a": 1})

	cache.Set("node-a", schema, configHash, nil)

	got, ok := cache.Get("node-a", configHash, nil)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got != schema {
		t.Fatalf("expected the cached schema back, got %v", got)
	}

	metrics := cache.GetMetrics()
	if metrics.Hits != 1 || metrics.Sets != 1 {
		t.Fatalf("expected 1 hit and 1 set, got %+v", metrics)
	}
}

func TestSchemaCache_MissOnConfigHashChange(t *testing.T) {
	cache := NewSchemaCache(time.Minute, 10)
	schema := &types.DataSchema{}
	cache.Set("node-a", schema, "hash-1", nil)

	if _, ok := cache.Get("node-a", "hash-2", nil); ok {
		t.Fatal("expected a miss when the config hash changed")
	}
}

func TestSchemaCache_MissAfterTTLExpiry(t *testing.T) {
	cache := NewSchemaCache(time.Millisecond, 10)
	cache.Set("node-a", &types.DataSchema{}, "hash-1", nil)
	time.Sleep(5 * time.Millisecond)

	if _, ok := cache.Get("node-a", "hash-1", nil); ok {
		t.Fatal("expected a miss after the TTL expired")
	}
}

func TestSchemaCache_InvalidateWorkflowEvictsAllItsEntries(t *testing.T) {
	cache := NewSchemaCache(time.Minute, 10)
	cache.SetWithWorkflow("wf-1", "node-a", &types.DataSchema{}, "hash-1", nil)
	cache.SetWithWorkflow("wf-1", "node-b", &types.DataSchema{}, "hash-1", nil)
	cache.SetWithWorkflow("wf-2", "node-c", &types.DataSchema{}, "hash-1", nil)

	cache.InvalidateWorkflow("wf-1")

	if _, ok := cache.Get("node-a", "hash-1", nil); ok {
		t.Fatal("expected node-a evicted after invalidating wf-1")
	}
	if _, ok := cache.Get("node-b", "hash-1", nil); ok {
		t.Fatal("expected node-b evicted after invalidating wf-1")
	}
	if _, ok := cache.Get("node-c", "hash-1", nil); !ok {
		t.Fatal("expected node-c from a different workflow to remain cached")
	}
}

func TestSchemaCache_EvictsOldestWhenFull(t *testing.T) {
	cache := NewSchemaCache(time.Minute, 2)
	cache.Set("node-a", &types.DataSchema{}, "hash-1", nil)
	time.Sleep(time.Millisecond)
	cache.Set("node-b", &types.DataSchema{}, "hash-1", nil)
	time.Sleep(time.Millisecond)
	cache.Set("node-c", &types.DataSchema{}, "hash-1", nil)

	if _, ok := cache.Get("node-a", "hash-1", nil); ok {
		t.Fatal("expected the oldest entry (node-a) to be evicted")
	}
	metrics := cache.GetMetrics()
	if metrics.Size != 2 {
		t.Fatalf("expected cache size capped at 2, got %d", metrics.Size)
	}
}
