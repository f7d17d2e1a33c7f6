package extract

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnavailable is returned for capabilities that are unknown or failed to initialize.
var ErrUnavailable = errors.New("extraction capability unavailable")

// Factory builds an extractor. It runs at most once per registered capability.
type Factory func() (Extractor, error)

type registryEntry struct {
	once      sync.Once
	factory   Factory
	extractor Extractor
	err       error
}

// Registry holds lazily initialized extraction capabilities. A capability whose
// factory fails stays unavailable without affecting the others.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds or replaces a capability.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &registryEntry{factory: factory}
}

// Get returns the extractor for name, initializing it on first use. Concurrent
// first calls share a single initialization.
func (r *Registry) Get(name string) (Extractor, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not registered", ErrUnavailable, name)
	}

	entry.once.Do(func() {
		if entry.factory == nil {
			entry.err = errors.New("no factory")
			return
		}
		entry.extractor, entry.err = entry.factory()
		if entry.err == nil && entry.extractor == nil {
			entry.err = errors.New("factory returned no extractor")
		}
	})
	if entry.err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, entry.err)
	}
	return entry.extractor, nil
}

// Available reports whether name can be used, initializing it if needed.
func (r *Registry) Available(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names returns the registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
