package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Static errors for registry package
var (
	ErrAlreadyRegistered = errors.New("name already registered")
	ErrEmptyName         = errors.New("name must not be empty")
)

// Catalog is an immutable name -> entry mapping with a stable name order.
// It is safe for concurrent reads.
type Catalog[F any] struct {
	names   []string
	entries map[string]F
}

// NewCatalog merges sets in order; a later set overrides an earlier one for the same name.
func NewCatalog[F any](sets ...map[string]F) *Catalog[F] {
	entries := make(map[string]F)
	for _, set := range sets {
		maps.Copy(entries, set)
	}
	return &Catalog[F]{
		names:   slices.Sorted(maps.Keys(entries)),
		entries: entries,
	}
}

// Get returns the entry declared under the exact name.
func (c *Catalog[F]) Get(name string) (F, bool) {
	if c == nil {
		var zero F
		return zero, false
	}
	f, ok := c.entries[name]
	return f, ok
}

// Has reports whether name is declared.
func (c *Catalog[F]) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the declared names in ascending order.
func (c *Catalog[F]) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

// Len returns the number of declared names.
func (c *Catalog[F]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Match expands a wildcard pattern against the declared names.
func (c *Catalog[F]) Match(pattern string) []string {
	if c == nil {
		return nil
	}
	return MatchPrefix(c.names, pattern)
}

// Registry is a concurrent, append-only name -> entry store.
type Registry[F any] struct {
	mu      sync.RWMutex
	entries map[string]F
}

// NewRegistry creates an empty registry.
func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{entries: make(map[string]F)}
}

// Register adds f under name. Registering a name twice is an error.
func (r *Registry[F]) Register(name string, f F) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.entries[name] = f
	return nil
}

// Get returns the entry registered under name.
func (r *Registry[F]) Get(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.entries[name]
	return f, ok
}

// Names returns the registered names in ascending order.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Snapshot freezes the current entries into a Catalog.
func (r *Registry[F]) Snapshot() *Catalog[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewCatalog(r.entries)
}
