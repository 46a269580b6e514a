package workflow

import (
	"sort"
	"sync"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// connectorRegistry is the process-wide, read-only-after-startup
// factory table every engine instance shares.
type connectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]types.ConnectorFactory
}

func NewConnectorRegistry() types.ConnectorRegistry {
	return &connectorRegistry{
		factories: make(map[string]types.ConnectorFactory),
	}
}

func (r *connectorRegistry) Register(id string, factory types.ConnectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

// Get instantiates a fresh, unconfigured connector for the given type
// id. Every call returns a new instance: connectors are never shared
// between nodes or runs.
func (r *connectorRegistry) Get(id string) (types.Connector, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, NewUnknownConnectorError(id)
	}
	return factory(), nil
}

func (r *connectorRegistry) List() []types.ConnectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	infos := make([]types.ConnectorInfo, 0, len(ids))
	for _, id := range ids {
		c := r.factories[id]()
		infos = append(infos, types.ConnectorInfo{
			ID:     c.ID(),
			Name:   c.Name(),
			Type:   c.Type(),
			Config: c.GetConfigSchema(),
		})
	}
	return infos
}
