package fetcher

import (
	"sort"
	"sync"
)

// Registry maps provider names to fetchers. It is populated once at startup
// and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates a registry holding the given fetchers
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds a fetcher, replacing any previous one with the same name
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Name()] = f
}

// Resolve retrieves a fetcher by provider name
func (r *Registry) Resolve(name string) (Fetcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[name]
	return f, ok
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered fetchers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fetchers)
}
