package tenant

import (
	"context"
	"sync"
)

// StaticRegistry is an in-memory Registry for tests, examples, and
// single-binary deployments with a fixed tenant set.
type StaticRegistry struct {
	mu      sync.RWMutex
	tenants map[string]Config
}

// NewStaticRegistry creates an empty StaticRegistry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		tenants: make(map[string]Config),
	}
}

// Add registers or replaces a tenant.
func (r *StaticRegistry) Add(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[cfg.ID] = cfg
}

// Find returns a copy of the tenant configuration, or ErrNotFound.
func (r *StaticRegistry) Find(_ context.Context, tenantID string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.tenants[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}
