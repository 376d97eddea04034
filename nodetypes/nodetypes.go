// Package nodetypes keeps the classes generated for host node types and the
// extra methods plugins attach to them.
package nodetypes

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnknownType is returned when removing a class that was never registered.
var ErrUnknownType = errors.New("unknown node type")

// BaseClass is the parent of every generated class.
const BaseClass = "DependNode"

// Method is a callable attached to a node-type class. node is the name of the
// node instance it is invoked on.
type Method func(node string, args ...any) (any, error)

// Methods maps method names to implementations.
type Methods map[string]Method

// Clone returns a shallow copy, never nil.
func (m Methods) Clone() Methods {
	out := make(Methods, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Names returns the method names, sorted.
func (m Methods) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Class represents one node type.
type Class struct {
	Name    string
	Parent  string
	Methods Methods
}

// Call invokes a method on node.
func (c *Class) Call(method, node string, args ...any) (any, error) {
	fn, ok := c.Methods[method]
	if !ok {
		return nil, errors.New(c.Name + ": no method " + method)
	}
	return fn(node, args...)
}

// Namespace is the name -> Class table.
type Namespace struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{classes: make(map[string]*Class)}
}

// Lookup returns the class for a node type.
func (n *Namespace) Lookup(name string) (*Class, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.classes[name]
	return c, ok
}

// Has returns true if a class exists for name.
func (n *Namespace) Has(name string) bool {
	_, ok := n.Lookup(name)
	return ok
}

// Names returns all class names, sorted.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.classes))
	for name := range n.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Namespace) put(c *Class) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes[c.Name] = c
}

func (n *Namespace) remove(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.classes[name]; !ok {
		return false
	}
	delete(n.classes, name)
	return true
}
