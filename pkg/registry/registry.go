// Package registry maps panel keys to the factories that can rebuild their
// content. A layout stream stores only keys; restoring a layout looks each
// key up here.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/logging"
)

// ErrUnknownPanel is returned when no factory is registered for a key.
var ErrUnknownPanel = errors.New("unknown panel key")

// Panel is what a factory produces: the rebuilt content and its title.
type Panel struct {
	Title   string
	Content any
}

// Factory rebuilds a panel's content for the given persistent ID. The ID's
// key prefix selected the factory; the full ID lets one factory serve many
// instances.
type Factory func(persistentID string) (Panel, error)

// Registry is a thread-safe factory table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *logging.Logger
}

// New creates an empty registry.
func New(log *logging.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		log:       log.OrNop().Named("registry"),
	}
}

// Register installs a factory under key, replacing any previous one.
func (r *Registry) Register(key string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		r.log.Warn("replacing panel factory", zap.String("key", key))
	}
	r.factories[key] = f
}

// Unregister removes the factory for key, reporting whether one existed.
func (r *Registry) Unregister(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[key]
	delete(r.factories, key)
	return ok
}

// Create rebuilds the panel for persistentID using the factory registered
// under key.
func (r *Registry) Create(key, persistentID string) (Panel, error) {
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return Panel{}, fmt.Errorf("%w: %q", ErrUnknownPanel, key)
	}

	p, err := f(persistentID)
	if err != nil {
		return Panel{}, fmt.Errorf("factory %q: %w", key, err)
	}
	return p, nil
}

// Has reports whether a factory is registered for key.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
