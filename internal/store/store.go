// Package store holds the process-wide handle to the PocketBase
// application instance backing the record-store connectors and the
// execution history recorder. It exists so that connectors and the
// engine's ambient persistence layer can reach the running app without
// threading it through every constructor, mirroring the composition-root
// pattern this codebase uses for its other singleton collaborators.
package store

import (
	"sync"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/shashank-sharma/workflow-engine/internal/config"
)

var (
	mu   sync.RWMutex
	app  *pocketbase.PocketBase
	conf *config.Config
)

// SetApp registers the running PocketBase instance. Called once from the
// composition root before any connector or recorder is used.
func SetApp(a *pocketbase.PocketBase) {
	mu.Lock()
	defer mu.Unlock()
	app = a
}

// GetApp returns the registered PocketBase instance, or nil if none has
// been set (e.g. when running the engine against fakes in tests).
func GetApp() *pocketbase.PocketBase {
	mu.RLock()
	defer mu.RUnlock()
	return app
}

// GetDao returns the registered app's core.App, the handle record-store
// connectors query and mutate records through. Returns nil under the
// same conditions as GetApp.
func GetDao() core.App {
	mu.RLock()
	defer mu.RUnlock()
	if app == nil {
		return nil
	}
	return app
}

// SetConfig registers the resolved process configuration. Called once
// from the composition root alongside SetApp.
func SetConfig(c *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	conf = c
}

// DataDir returns the configured data directory, falling back to "./data"
// if no configuration has been registered.
func DataDir() string {
	mu.RLock()
	defer mu.RUnlock()
	if conf == nil {
		return "./data"
	}
	return conf.DataDir
}

// ResultsDir returns the configured workflow results directory, falling
// back to "./data/storage/workflow_results" if no configuration has been
// registered.
func ResultsDir() string {
	mu.RLock()
	defer mu.RUnlock()
	if conf == nil {
		return "./data/storage/workflow_results"
	}
	return conf.ResultsDir
}
