package entity

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry maps kind names to kinds.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

func NewRegistry() *Registry {
	return &Registry{kinds: map[string]*Kind{}}
}

// Register adds kinds. Names should be unique in the registry.
func (r *Registry) Register(kinds ...*Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range kinds {
		if _, ok := r.kinds[k.Name()]; ok {
			return fmt.Errorf("kind %s is already registered", k.Name())
		}
	}
	for _, k := range kinds {
		r.kinds[k.Name()] = k
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns names of registered kinds, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.kinds))
}
