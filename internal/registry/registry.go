// Package registry resolves model identifiers against the model registry
// service. Decision logging consults it before accepting a record, so
// lookups sit on the hot path and are cached aggressively.
package registry

import (
	"context"
	"sync"
)

// StaticRegistry is an in-memory model registry for development and tests.
type StaticRegistry struct {
	mu     sync.RWMutex
	models map[string]bool
}

// NewStaticRegistry builds a registry pre-populated with the given model IDs.
func NewStaticRegistry(modelIDs ...string) *StaticRegistry {
	models := make(map[string]bool, len(modelIDs))
	for _, id := range modelIDs {
		models[id] = true
	}
	return &StaticRegistry{models: models}
}

// Add registers a model ID.
func (r *StaticRegistry) Add(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[modelID] = true
}

// ResolveModel reports whether the model is registered.
func (r *StaticRegistry) ResolveModel(_ context.Context, modelID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models[modelID], nil
}
