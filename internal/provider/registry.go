package provider

import (
	"fmt"
	"sync"
)

// Registry manages invoker factories and instances.
// It allows dynamic registration of new provider types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	invokers  map[string]Invoker
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		invokers:  make(map[string]Invoker),
	}
}

// RegisterFactory registers a factory function for a provider type.
// This should be called during initialization for all supported types.
func (r *Registry) RegisterFactory(providerType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[providerType] = factory
}

// CreateInvoker creates a new invoker using the registered factory.
func (r *Registry) CreateInvoker(cfg Config) (Invoker, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	inv, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", cfg.Name, err)
	}

	r.mu.Lock()
	r.invokers[cfg.Name] = inv
	r.mu.Unlock()

	return inv, nil
}

// GetInvoker returns an invoker by provider name.
func (r *Registry) GetInvoker(name string) (Invoker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invokers[name]
	return inv, ok
}

// ListInvokers returns all registered provider names.
func (r *Registry) ListInvokers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.invokers))
	for name := range r.invokers {
		names = append(names, name)
	}
	return names
}
