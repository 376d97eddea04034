package commands

import (
	"fmt"
	"sort"
	"sync"
)

// Namespace is a name -> Func table callers resolve commands through.
type Namespace struct {
	name  string
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:  name,
		funcs: make(map[string]Func),
	}
}

// Name returns the namespace's name.
func (n *Namespace) Name() string {
	return n.name
}

// Bind stores fn under key, replacing any previous binding.
func (n *Namespace) Bind(key string, fn Func) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.funcs[key] = fn
}

// Unbind removes key and reports whether it was present.
func (n *Namespace) Unbind(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.funcs[key]; !ok {
		return false
	}
	delete(n.funcs, key)
	return true
}

// Lookup returns the function bound to key.
func (n *Namespace) Lookup(key string) (Func, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	fn, ok := n.funcs[key]
	return fn, ok
}

// Has returns true if key is bound.
func (n *Namespace) Has(key string) bool {
	_, ok := n.Lookup(key)
	return ok
}

// Call resolves key and invokes it.
func (n *Namespace) Call(key string, args ...any) (any, error) {
	fn, ok := n.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", n.name, key, ErrNotBound)
	}
	return fn(args...)
}

// Names returns all bound keys, sorted.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	keys := make([]string, 0, len(n.funcs))
	for k := range n.funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Namespaces pairs the public namespace with the optional aggregate one.
// The aggregate namespace only receives bindings while it is loaded.
type Namespaces struct {
	primary   *Namespace
	mu        sync.RWMutex
	aggregate *Namespace
}

// NewNamespaces creates the pair with no aggregate loaded.
func NewNamespaces(primary *Namespace) *Namespaces {
	return &Namespaces{primary: primary}
}

// Primary returns the public namespace.
func (ns *Namespaces) Primary() *Namespace {
	return ns.primary
}

// Aggregate returns the aggregate namespace if it is loaded.
func (ns *Namespaces) Aggregate() (*Namespace, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.aggregate, ns.aggregate != nil
}

// LoadAggregate marks agg as loaded.
func (ns *Namespaces) LoadAggregate(agg *Namespace) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.aggregate = agg
}

// DropAggregate marks the aggregate namespace as not loaded.
func (ns *Namespaces) DropAggregate() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.aggregate = nil
}

// Bind binds fn in the primary namespace and, if loaded, the aggregate one.
func (ns *Namespaces) Bind(key string, fn Func) {
	ns.primary.Bind(key, fn)
	if agg, ok := ns.Aggregate(); ok {
		agg.Bind(key, fn)
	}
}

// Unbind removes key from both namespaces and reports whether the primary had it.
func (ns *Namespaces) Unbind(key string) bool {
	removed := ns.primary.Unbind(key)
	if agg, ok := ns.Aggregate(); ok {
		agg.Unbind(key)
	}
	return removed
}
