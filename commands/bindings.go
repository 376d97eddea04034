package commands

import (
	"errors"
	"sort"
	"sync"

	"github.com/leeforge/hostbridge/host"
)

// ErrNotBound is returned when a binding or namespace entry is missing.
var ErrNotBound = errors.New("command not bound")

// Func is a callable bound to a command name.
type Func func(args ...any) (any, error)

// Bindings are the low-level callables that forward straight to host
// dispatch. Generated wrappers sit on top of them.
type Bindings struct {
	mu       sync.RWMutex
	dispatch host.Dispatcher
	raw      map[string]Func
}

// NewBindings creates an empty binding table over d.
func NewBindings(d host.Dispatcher) *Bindings {
	return &Bindings{
		dispatch: d,
		raw:      make(map[string]Func),
	}
}

// Add installs or refreshes the binding for name.
func (b *Bindings) Add(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.dispatch
	b.raw[name] = func(args ...any) (any, error) {
		return d.Invoke(name, args...)
	}
}

// Remove uninstalls the binding for name.
func (b *Bindings) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.raw[name]; !ok {
		return ErrNotBound
	}
	delete(b.raw, name)
	return nil
}

// Get returns the binding for name.
func (b *Bindings) Get(name string) (Func, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.raw[name]
	return fn, ok
}

// Has returns true if name is bound.
func (b *Bindings) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// Names returns the bound command names, sorted.
func (b *Bindings) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.raw))
	for name := range b.raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
