// Package registry holds the set of data sources known to the router.
//
// Providers are kept in registration order and are unique by name: the
// first registration for a name wins and later duplicates are silently
// ignored, so registration is idempotent regardless of call order or
// repetition. Providers are never removed.
package registry

import (
	"slices"
	"sync"

	"github.com/matzehuels/marketlink/pkg/provider"
)

// Registry is an insertion-ordered, name-unique list of providers.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers []provider.Provider
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Register appends p unless a provider with the same name is already
// registered. It reports whether p was added.
func (r *Registry) Register(p provider.Provider) bool {
	name := p.Descriptor().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.providers, func(q provider.Provider) bool {
		return q.Descriptor().Name == name
	}) {
		return false
	}
	r.providers = append(r.providers, p)
	return true
}

// Providers returns a snapshot of all providers in registration order.
func (r *Registry) Providers() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.providers)
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (provider.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Descriptor().Name == name {
			return p, true
		}
	}
	return nil, false
}

// Capable returns, in registration order, the providers that list c as a
// capability, regardless of whether they are enabled.
func (r *Registry) Capable(c provider.Category) []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []provider.Provider
	for _, p := range r.providers {
		if p.Descriptor().Supports(c) {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
