// Package commands holds the command side of the bridge: cached command
// metadata, the low-level bindings onto host dispatch, the generated wrapper
// functions and the namespaces that expose them.
package commands

import (
	"sort"
	"sync"

	"github.com/leeforge/hostbridge/host"
)

// Registry caches basic metadata for every known command.
// Built-in commands are never removed.
type Registry struct {
	mu       sync.RWMutex
	infos    map[string]host.CommandInfo
	builtins map[string]struct{}
}

// NewRegistry creates a registry seeded with built-in commands.
func NewRegistry(builtins ...host.CommandInfo) *Registry {
	r := &Registry{
		infos:    make(map[string]host.CommandInfo, len(builtins)),
		builtins: make(map[string]struct{}, len(builtins)),
	}
	for _, info := range builtins {
		r.infos[info.Name] = info
		r.builtins[info.Name] = struct{}{}
	}
	return r
}

// Set stores or refreshes metadata for a command.
func (r *Registry) Set(info host.CommandInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos[info.Name] = info
}

// Info returns the cached metadata for name.
func (r *Registry) Info(name string) (host.CommandInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[name]
	return info, ok
}

// Has returns true if name is known.
func (r *Registry) Has(name string) bool {
	_, ok := r.Info(name)
	return ok
}

// IsBuiltin returns true if name was seeded at construction.
func (r *Registry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builtins[name]
	return ok
}

// Remove drops a plugin command. Built-ins and unknown names report false.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, builtin := r.builtins[name]; builtin {
		return false
	}
	if _, ok := r.infos[name]; !ok {
		return false
	}
	delete(r.infos, name)
	return true
}

// Names returns all known command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.infos))
	for name := range r.infos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
