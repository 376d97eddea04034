package nodetypes

import (
	"fmt"
	"sync"
)

// Factory creates and destroys node-type classes.
type Factory interface {
	AddNode(nodeType string, extra Methods) (*Class, error)
	RemoveNode(nodeType string) error
}

// ClassFactory builds classes into a Namespace. Every class gets the base
// methods; extra methods are merged over them.
type ClassFactory struct {
	ns   *Namespace
	base Methods
}

// NewClassFactory creates a factory writing into ns.
func NewClassFactory(ns *Namespace) *ClassFactory {
	return &ClassFactory{ns: ns, base: baseMethods}
}

var baseMethods = Methods{
	"name": func(node string, _ ...any) (any, error) { return node, nil },
}

func (f *ClassFactory) AddNode(nodeType string, extra Methods) (*Class, error) {
	if nodeType == "" {
		return nil, fmt.Errorf("empty node type")
	}
	methods := f.base.Clone()
	methods["nodeType"] = func(string, ...any) (any, error) { return nodeType, nil }
	for name, fn := range extra {
		methods[name] = fn
	}
	c := &Class{Name: nodeType, Parent: BaseClass, Methods: methods}
	f.ns.put(c)
	return c, nil
}

func (f *ClassFactory) RemoveNode(nodeType string) error {
	if !f.ns.remove(nodeType) {
		return fmt.Errorf("%s: %w", nodeType, ErrUnknownType)
	}
	return nil
}

var _ Factory = (*ClassFactory)(nil)

// ExtraMethods holds the per-plugin, per-type method overrides supplied out of
// band, keyed by plugin name and node type.
type ExtraMethods struct {
	mu       sync.RWMutex
	byPlugin map[string]map[string]Methods
}

// NewExtraMethods creates an empty table.
func NewExtraMethods() *ExtraMethods {
	return &ExtraMethods{byPlugin: make(map[string]map[string]Methods)}
}

// Register merges methods into the entry for (plugin, nodeType).
func (e *ExtraMethods) Register(plugin, nodeType string, methods Methods) {
	e.mu.Lock()
	defer e.mu.Unlock()
	types, ok := e.byPlugin[plugin]
	if !ok {
		types = make(map[string]Methods)
		e.byPlugin[plugin] = types
	}
	merged := types[nodeType].Clone()
	for name, fn := range methods {
		merged[name] = fn
	}
	types[nodeType] = merged
}

// Lookup returns a copy of the methods for (plugin, nodeType), empty if none.
func (e *ExtraMethods) Lookup(plugin, nodeType string) Methods {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.byPlugin[plugin][nodeType].Clone()
}
