// Package memory is an in-process stand-in for the embedding application. It
// keeps a plugin catalog, a scene file-read flag and an event dispatcher, and
// lets callers inject query failures.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leeforge/hostbridge/host"
)

// Query identifies a host query whose failure can be injected.
type Query string

const (
	QueryCommands    Query = "commands"
	QueryNodeTypes   Query = "nodeTypes"
	QueryValidTypes  Query = "validTypes"
	QueryLoaded      Query = "loaded"
	QueryCommandInfo Query = "commandInfo"
)

// PluginSpec declares what a plugin contributes when loaded.
type PluginSpec struct {
	Name     string
	Path     string
	Commands []string
	// NodeTypes is what the plugin declares.
	NodeTypes []string
	// ValidNodeTypes is the subset that becomes instantiable once loaded.
	ValidNodeTypes []string
}

// Invocation records one dispatched command.
type Invocation struct {
	Command string
	Args    []any
}

// Host implements host.Host and host.LegacyCallbacks.
type Host struct {
	mu sync.RWMutex

	version    host.Version
	catalog    map[string]PluginSpec
	loaded     []string
	validTypes map[string]int // type -> number of providers
	reading    bool
	opening    bool
	failures   map[Query]map[string]error

	legacyCommands []legacyCommand
	invocations    []Invocation

	events *dispatcher
}

type legacyCommand struct {
	command string
	eval    host.CommandEvaluator
}

// New creates a host reporting version v with the given built-in node types.
func New(v host.Version, builtinTypes ...string) *Host {
	h := &Host{
		version:    v,
		catalog:    make(map[string]PluginSpec),
		validTypes: make(map[string]int),
		failures:   make(map[Query]map[string]error),
		events:     newDispatcher(),
	}
	for _, t := range builtinTypes {
		h.validTypes[t]++
	}
	return h
}

// Define adds or replaces a plugin in the catalog.
func (h *Host) Define(spec PluginSpec) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if spec.Path == "" {
		spec.Path = "/plug-ins/" + spec.Name + ".so"
	}
	h.catalog[spec.Name] = spec
}

// Fail makes query fail with err for plugin. For queries that do not take a
// plugin name, pass "".
func (h *Host) Fail(q Query, plugin string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures[q] == nil {
		h.failures[q] = make(map[string]error)
	}
	h.failures[q][plugin] = err
}

// Heal clears every injected failure.
func (h *Host) Heal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = make(map[Query]map[string]error)
}

func (h *Host) failure(q Query, key string) error {
	if byKey, ok := h.failures[q]; ok {
		return byKey[key]
	}
	return nil
}

// SetReadingFile toggles the "file is being read" flag.
func (h *Host) SetReadingFile(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reading = v
}

// SetOpeningFile toggles the "file is being opened" flag.
func (h *Host) SetOpeningFile(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opening = v
}

// Load marks a catalog plugin as loaded and fires the plugin-loaded event in
// the shape the host version uses.
func (h *Host) Load(name string) error {
	h.mu.Lock()
	spec, ok := h.catalog[name]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("plugin %q is not in the catalog", name)
	}
	if h.isLoadedLocked(name) {
		h.mu.Unlock()
		return fmt.Errorf("plugin %q is already loaded", name)
	}
	h.loaded = append(h.loaded, name)
	for _, t := range spec.ValidNodeTypes {
		h.validTypes[t]++
	}
	legacy := append([]legacyCommand(nil), h.legacyCommands...)
	version := h.version
	h.mu.Unlock()

	if version.SupportsStringArrayCallbacks() {
		h.events.fire(host.EventPluginLoaded, host.StringsPayload(spec.Path, spec.Name))
		return nil
	}
	for _, lc := range legacy {
		if err := lc.eval(strings.ReplaceAll(lc.command, "%s", name)); err != nil {
			return fmt.Errorf("load callback for %q: %w", name, err)
		}
	}
	return nil
}

// Unload marks a plugin as unloaded and fires the plugin-unloaded event.
// Versions without string-array callbacks fire nothing.
func (h *Host) Unload(name string) error {
	h.mu.Lock()
	idx := -1
	for i, n := range h.loaded {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.mu.Unlock()
		return fmt.Errorf("plugin %q is not loaded", name)
	}
	h.loaded = append(h.loaded[:idx:idx], h.loaded[idx+1:]...)
	spec := h.catalog[name]
	for _, t := range spec.ValidNodeTypes {
		if h.validTypes[t]--; h.validTypes[t] <= 0 {
			delete(h.validTypes, t)
		}
	}
	version := h.version
	h.mu.Unlock()

	if version.SupportsStringArrayCallbacks() {
		h.events.fire(host.EventPluginUnloaded, host.StringsPayload(spec.Name, spec.Path))
	}
	return nil
}

// OpenScene simulates a file open: the reading and opening flags are raised
// while during runs, then SceneOpened fires.
func (h *Host) OpenScene(during func() error) error {
	h.SetReadingFile(true)
	h.SetOpeningFile(true)
	var err error
	if during != nil {
		err = during()
	}
	h.SetReadingFile(false)
	h.SetOpeningFile(false)
	h.FireSceneOpened()
	return err
}

// FireSceneOpened delivers SceneOpened and returns how many callbacks ran.
func (h *Host) FireSceneOpened() int {
	return h.events.fire(host.EventSceneOpened, host.Payload{Kind: host.PayloadNone})
}

// Fire delivers an arbitrary event, for payload shapes Load/Unload don't produce.
func (h *Host) Fire(kind host.EventKind, p host.Payload) int {
	return h.events.fire(kind, p)
}

// CallbackCount returns how many callbacks are installed for kind.
func (h *Host) CallbackCount(kind host.EventKind) int {
	return h.events.count(kind)
}

// HasCallback reports whether id is installed.
func (h *Host) HasCallback(id host.CallbackID) bool {
	return h.events.has(id)
}

// LegacyCommands returns the load commands registered through AddLoadPluginCommand.
func (h *Host) LegacyCommands() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.legacyCommands))
	for _, lc := range h.legacyCommands {
		out = append(out, lc.command)
	}
	return out
}

// Invocations returns every command dispatched through Invoke.
func (h *Host) Invocations() []Invocation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Invocation(nil), h.invocations...)
}

func (h *Host) isLoadedLocked(name string) bool {
	for _, n := range h.loaded {
		if n == name {
			return true
		}
	}
	return false
}

// --- host.Host ---

func (h *Host) Version() host.Version {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

func (h *Host) IsReadingFile() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reading
}

func (h *Host) IsOpeningFile() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opening
}

func (h *Host) PluginCommands(plugin string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.failure(QueryCommands, plugin); err != nil {
		return nil, err
	}
	spec, ok := h.catalog[plugin]
	if !ok || !h.isLoadedLocked(plugin) {
		return nil, fmt.Errorf("plugin %q is not loaded", plugin)
	}
	return append([]string(nil), spec.Commands...), nil
}

func (h *Host) PluginNodeTypes(plugin string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.failure(QueryNodeTypes, plugin); err != nil {
		return nil, err
	}
	spec, ok := h.catalog[plugin]
	if !ok || !h.isLoadedLocked(plugin) {
		return nil, fmt.Errorf("plugin %q is not loaded", plugin)
	}
	return append([]string(nil), spec.NodeTypes...), nil
}

func (h *Host) ValidNodeTypes() ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.failure(QueryValidTypes, ""); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(h.validTypes))
	for t := range h.validTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (h *Host) LoadedPlugins() ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.failure(QueryLoaded, ""); err != nil {
		return nil, err
	}
	return append([]string(nil), h.loaded...), nil
}

func (h *Host) CommandInfo(command string) (host.CommandInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.failure(QueryCommandInfo, command); err != nil {
		return host.CommandInfo{}, err
	}
	for _, name := range h.loaded {
		for _, c := range h.catalog[name].Commands {
			if c == command {
				return host.CommandInfo{Name: command, Plugin: name, Undoable: true}, nil
			}
		}
	}
	return host.CommandInfo{Name: command}, nil
}

func (h *Host) Invoke(command string, args ...any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invocations = append(h.invocations, Invocation{Command: command, Args: append([]any(nil), args...)})
	return command, nil
}

func (h *Host) AddEventCallback(kind host.EventKind, handler host.Handler) (host.CallbackID, error) {
	if handler == nil {
		return host.NoCallback, fmt.Errorf("nil handler for %q", kind)
	}
	return h.events.subscribe(kind, handler), nil
}

func (h *Host) RemoveCallback(id host.CallbackID) error {
	return h.events.unsubscribe(id)
}

// AddLoadPluginCommand implements host.LegacyCallbacks.
func (h *Host) AddLoadPluginCommand(command string, eval host.CommandEvaluator) error {
	if eval == nil {
		return fmt.Errorf("nil evaluator for load command")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.legacyCommands = append(h.legacyCommands, legacyCommand{command: command, eval: eval})
	return nil
}

var (
	_ host.Host            = (*Host)(nil)
	_ host.LegacyCallbacks = (*Host)(nil)
)
