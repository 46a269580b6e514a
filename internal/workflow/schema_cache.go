package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// SchemaCacheEntry is one cached GetOutputSchema result, valid as long
// as the producing node's config and every upstream node's config
// hash unchanged and the entry hasn't aged past the cache's TTL.
type SchemaCacheEntry struct {
	Schema      *types.DataSchema
	ConfigHash  string
	InputHashes []string
	Timestamp   time.Time
}

// SchemaCacheMetrics is a point-in-time snapshot of cache effectiveness.
type SchemaCacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Sets      int64
	Size      int
}

// SchemaCache memoizes declared output schemas per node, keyed by a
// hash of the node's own config and its upstream nodes' config
// hashes, so the engine's declareSchemas pass can reuse a declaration
// across runs without re-instantiating connectors.
type SchemaCache struct {
	cache      map[string]*SchemaCacheEntry
	workflow   map[string][]string
	mutex      sync.RWMutex
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	evictions  int64
	sets       int64
}

func NewSchemaCache(ttl time.Duration, maxEntries int) *SchemaCache {
	return &SchemaCache{
		cache:      make(map[string]*SchemaCacheEntry),
		workflow:   make(map[string][]string),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (sc *SchemaCache) Get(nodeID, configHash string, inputHashes []string) (*types.DataSchema, bool) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	entry, exists := sc.cache[nodeID]
	if !exists {
		atomic.AddInt64(&sc.misses, 1)
		return nil, false
	}
	if time.Since(entry.Timestamp) > sc.ttl {
		atomic.AddInt64(&sc.misses, 1)
		return nil, false
	}
	if entry.ConfigHash != configHash {
		atomic.AddInt64(&sc.misses, 1)
		return nil, false
	}
	if len(entry.InputHashes) != len(inputHashes) {
		atomic.AddInt64(&sc.misses, 1)
		return nil, false
	}
	for i, h := range inputHashes {
		if entry.InputHashes[i] != h {
			atomic.AddInt64(&sc.misses, 1)
			return nil, false
		}
	}

	atomic.AddInt64(&sc.hits, 1)
	return entry.Schema, true
}

func (sc *SchemaCache) Set(nodeID string, schema *types.DataSchema, configHash string, inputHashes []string) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if len(sc.cache) >= sc.maxEntries {
		sc.evictOldestLocked()
		atomic.AddInt64(&sc.evictions, 1)
	}

	hashesCopy := make([]string, len(inputHashes))
	copy(hashesCopy, inputHashes)

	sc.cache[nodeID] = &SchemaCacheEntry{
		Schema:      schema,
		ConfigHash:  configHash,
		InputHashes: hashesCopy,
		Timestamp:   time.Now(),
	}
	atomic.AddInt64(&sc.sets, 1)
}

// SetWithWorkflow is Set plus bookkeeping so InvalidateWorkflow can
// evict every entry belonging to a workflow in one call.
func (sc *SchemaCache) SetWithWorkflow(workflowID, nodeID string, schema *types.DataSchema, configHash string, inputHashes []string) {
	sc.Set(nodeID, schema, configHash, inputHashes)

	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	for _, nid := range sc.workflow[workflowID] {
		if nid == nodeID {
			return
		}
	}
	sc.workflow[workflowID] = append(sc.workflow[workflowID], nodeID)
}

func (sc *SchemaCache) Invalidate(nodeID string) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	delete(sc.cache, nodeID)
}

func (sc *SchemaCache) InvalidateWorkflow(workflowID string) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	for _, nodeID := range sc.workflow[workflowID] {
		delete(sc.cache, nodeID)
	}
	delete(sc.workflow, workflowID)
}

func (sc *SchemaCache) Clear() {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.cache = make(map[string]*SchemaCacheEntry)
	sc.workflow = make(map[string][]string)
	atomic.StoreInt64(&sc.hits, 0)
	atomic.StoreInt64(&sc.misses, 0)
	atomic.StoreInt64(&sc.evictions, 0)
	atomic.StoreInt64(&sc.sets, 0)
}

func (sc *SchemaCache) GetMetrics() SchemaCacheMetrics {
	sc.mutex.RLock()
	size := len(sc.cache)
	sc.mutex.RUnlock()

	return SchemaCacheMetrics{
		Hits:      atomic.LoadInt64(&sc.hits),
		Misses:    atomic.LoadInt64(&sc.misses),
		Evictions: atomic.LoadInt64(&sc.evictions),
		Sets:      atomic.LoadInt64(&sc.sets),
		Size:      size,
	}
}

func (sc *SchemaCache) GetHitRate() float64 {
	hits := atomic.LoadInt64(&sc.hits)
	misses := atomic.LoadInt64(&sc.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (sc *SchemaCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, entry := range sc.cache {
		if first || entry.Timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.Timestamp
			first = false
		}
	}
	if oldestKey != "" {
		delete(sc.cache, oldestKey)
	}
}

func computeConfigHash(config map[string]interface{}) string {
	if config == nil {
		config = map[string]interface{}{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(configJSON)
	return hex.EncodeToString(hash[:])
}
