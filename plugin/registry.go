// Package plugin tracks which commands and node types each loaded host plugin
// contributes, and keeps the command namespaces and node-type classes in step
// with plugin load and unload events.
package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leeforge/hostbridge/commands"
	bridgeerrors "github.com/leeforge/hostbridge/errors"
	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/metrics"
	"github.com/leeforge/hostbridge/nodetypes"
	"go.uber.org/zap"
)

// Config holds the collaborators of a Registry. Only Host is required.
type Config struct {
	Host         host.Host
	Commands     *commands.Registry
	Bindings     *commands.Bindings
	Namespaces   *commands.Namespaces
	Functions    commands.Factory
	Nodes        nodetypes.Factory
	ExtraMethods *nodetypes.ExtraMethods
	Metrics      *metrics.Collector
	Logger       *zap.Logger
}

// Registry maps plugin names to the contributions they currently have
// registered. It never holds its lock across a call into the host or a
// factory, so handlers may be re-entered from host callbacks.
type Registry struct {
	host       host.Host
	commands   *commands.Registry
	bindings   *commands.Bindings
	namespaces *commands.Namespaces
	functions  commands.Factory
	nodes      nodetypes.Factory
	extras     *nodetypes.ExtraMethods
	metrics    *metrics.Collector
	logger     *zap.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// Report summarizes one load or unload pass. Errors holds every failure that
// was logged and skipped.
type Report struct {
	Plugin   string
	Deferred bool
	Errors   *bridgeerrors.Chain
}

// Err returns the collected failures, or nil.
func (r *Report) Err() error {
	return r.Errors.Err()
}

// NewRegistry creates a registry, filling unset collaborators with defaults.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("plugin registry: host is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Commands == nil {
		cfg.Commands = commands.NewRegistry()
	}
	if cfg.Bindings == nil {
		cfg.Bindings = commands.NewBindings(cfg.Host)
	}
	if cfg.Namespaces == nil {
		cfg.Namespaces = commands.NewNamespaces(commands.NewNamespace("core"))
	}
	if cfg.Functions == nil {
		cfg.Functions = commands.NewFunctionFactory(cfg.Commands, cfg.Bindings)
	}
	if cfg.Nodes == nil {
		cfg.Nodes = nodetypes.NewClassFactory(nodetypes.NewNamespace())
	}
	if cfg.ExtraMethods == nil {
		cfg.ExtraMethods = nodetypes.NewExtraMethods()
	}

	return &Registry{
		host:       cfg.Host,
		commands:   cfg.Commands,
		bindings:   cfg.Bindings,
		namespaces: cfg.Namespaces,
		functions:  cfg.Functions,
		nodes:      cfg.Nodes,
		extras:     cfg.ExtraMethods,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		entries:    make(map[string]*Entry),
	}, nil
}

// track runs fn on the entry for name under the lock and reports whether the
// entry exists.
func (r *Registry) track(name string, fn func(e *Entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// replaceEntry installs a fresh entry for name and returns the one it replaced.
func (r *Registry) replaceEntry(name string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.entries[name]
	r.entries[name] = &Entry{
		Name:        name,
		Commands:    []string{},
		DependNodes: []string{},
		CallbackID:  host.NoCallback,
		state:       StateLoaded,
	}
	return prev
}

func (r *Registry) pop(name string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	delete(r.entries, name)
	return e
}

// AddCommand records funcName under pluginName and installs its metadata,
// low-level binding and wrapper. A failure affects only this command.
func (r *Registry) AddCommand(pluginName, funcName string) (err error) {
	if !r.track(pluginName, func(e *Entry) {
		e.Commands, _ = appendUnique(e.Commands, funcName)
	}) {
		r.logger.Warn("cannot add command to untracked plugin",
			zap.String("plugin", pluginName), zap.String("command", funcName))
		return bridgeerrors.NewNotFound("plugin entry", pluginName).WithOp("addCommand")
	}

	defer func() {
		if p := recover(); p != nil {
			r.metrics.Command(metrics.ActionFailed)
			r.logger.Warn("exception while installing command",
				zap.String("plugin", pluginName), zap.String("command", funcName), zap.Any("panic", p))
			err = bridgeerrors.New(bridgeerrors.ErrorTypeInternal, fmt.Sprintf("panic: %v", p)).
				WithOp("addCommand").WithPlugin(pluginName).WithName(funcName)
		}
	}()
	return r.installCommand(pluginName, funcName)
}

func (r *Registry) installCommand(pluginName, funcName string) error {
	info, err := r.host.CommandInfo(funcName)
	if err != nil {
		r.metrics.LookupFailed("commandInfo")
		r.logger.Warn("exception while querying command info",
			zap.String("plugin", pluginName), zap.String("command", funcName), zap.Error(err))
		return bridgeerrors.NewLookup(pluginName, "commandInfo", err).WithName(funcName)
	}
	if info.Name == "" {
		info.Name = funcName
	}
	if info.Plugin == "" {
		info.Plugin = pluginName
	}
	r.commands.Set(info)
	r.bindings.Add(funcName)

	fn := r.functions.Function(funcName)
	if fn == nil {
		r.metrics.Command(metrics.ActionFailed)
		r.logger.Warn("failed to create function",
			zap.String("plugin", pluginName), zap.String("command", funcName))
		return bridgeerrors.NewGeneration(pluginName, funcName)
	}
	r.namespaces.Bind(funcName, fn)
	r.metrics.Command(metrics.ActionBound)
	return nil
}

// AddNode records nodeType under pluginName and registers its class with any
// extra methods supplied for the pair. A failure affects only this node type.
func (r *Registry) AddNode(pluginName, nodeType string) (err error) {
	if !r.track(pluginName, func(e *Entry) {
		e.DependNodes, _ = appendUnique(e.DependNodes, nodeType)
	}) {
		r.logger.Warn("cannot add node type to untracked plugin",
			zap.String("plugin", pluginName), zap.String("nodeType", nodeType))
		return bridgeerrors.NewNotFound("plugin entry", pluginName).WithOp("addNode")
	}

	defer func() {
		if p := recover(); p != nil {
			r.metrics.Node(metrics.ActionFailed)
			r.logger.Warn("exception while creating node class",
				zap.String("plugin", pluginName), zap.String("nodeType", nodeType), zap.Any("panic", p))
			err = bridgeerrors.New(bridgeerrors.ErrorTypeInternal, fmt.Sprintf("panic: %v", p)).
				WithOp("addNode").WithPlugin(pluginName).WithName(nodeType)
		}
	}()

	r.logger.Debug("adding node", zap.String("plugin", pluginName), zap.String("nodeType", nodeType))
	extra := r.extras.Lookup(pluginName, nodeType)
	if _, err := r.nodes.AddNode(nodeType, extra); err != nil {
		r.metrics.Node(metrics.ActionFailed)
		r.logger.Warn("failed to create node class",
			zap.String("plugin", pluginName), zap.String("nodeType", nodeType), zap.Error(err))
		return bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeGeneration, "failed to create node class").
			WithPlugin(pluginName).WithName(nodeType)
	}
	r.metrics.Node(metrics.ActionAdded)
	return nil
}

// RemoveCommand forgets command for pluginName and uninstalls it unless
// another tracked plugin still lists it. A pair that is not tracked is a no-op.
func (r *Registry) RemoveCommand(pluginName, command string) {
	_ = r.removeCommand(pluginName, command)
}

func (r *Registry) removeCommand(pluginName, command string) error {
	tracked := false
	r.track(pluginName, func(e *Entry) {
		e.Commands, tracked = removeValue(e.Commands, command)
	})
	if !tracked {
		r.logger.Debug("command not tracked for plugin",
			zap.String("plugin", pluginName), zap.String("command", command))
		return nil
	}
	return r.uninstallCommand(pluginName, command)
}

// uninstallCommand removes the metadata, binding and wrapper for a command
// pluginName no longer lists. The caller has already updated the entry.
func (r *Registry) uninstallCommand(pluginName, command string) error {
	if owner, ok := r.owner(command, commandsOf); ok {
		r.logger.Debug("command still provided by another plugin",
			zap.String("plugin", pluginName), zap.String("command", command), zap.String("owner", owner))
		return nil
	}
	if r.commands.IsBuiltin(command) {
		r.logger.Debug("leaving built-in command installed",
			zap.String("plugin", pluginName), zap.String("command", command))
		return nil
	}
	r.commands.Remove(command)

	var missing error
	if err := r.bindings.Remove(command); err != nil {
		r.logger.Warn("failed to remove command from namespace",
			zap.String("command", command), zap.String("namespace", r.namespaces.Primary().Name()))
		missing = bridgeerrors.NewNotFound("binding", command).WithOp("removeCommand").WithPlugin(pluginName)
	}
	if r.namespaces.Unbind(command) {
		r.metrics.Command(metrics.ActionUnbound)
	}
	return missing
}

// RemoveNode forgets nodeType for pluginName and removes its class unless
// another tracked plugin still lists it. A pair that is not tracked is a no-op.
func (r *Registry) RemoveNode(pluginName, nodeType string) {
	_ = r.removeNode(pluginName, nodeType)
}

func (r *Registry) removeNode(pluginName, nodeType string) error {
	tracked := false
	r.track(pluginName, func(e *Entry) {
		e.DependNodes, tracked = removeValue(e.DependNodes, nodeType)
	})
	if !tracked {
		r.logger.Debug("node type not tracked for plugin",
			zap.String("plugin", pluginName), zap.String("nodeType", nodeType))
		return nil
	}
	return r.uninstallNode(pluginName, nodeType)
}

func (r *Registry) uninstallNode(pluginName, nodeType string) error {
	if owner, ok := r.owner(nodeType, dependNodesOf); ok {
		r.logger.Debug("node type still provided by another plugin",
			zap.String("plugin", pluginName), zap.String("nodeType", nodeType), zap.String("owner", owner))
		return nil
	}
	if err := r.nodes.RemoveNode(nodeType); err != nil {
		r.logger.Debug("node class was not registered",
			zap.String("plugin", pluginName), zap.String("nodeType", nodeType), zap.Error(err))
		return bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeNotFound, "node class not registered").
			WithOp("removeNode").WithPlugin(pluginName).WithName(nodeType)
	}
	r.metrics.Node(metrics.ActionRemoved)
	return nil
}

func commandsOf(e *Entry) []string    { return e.Commands }
func dependNodesOf(e *Entry) []string { return e.DependNodes }

// owner returns a tracked plugin whose list still contains name.
func (r *Registry) owner(name string, list func(e *Entry) []string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for plugin, e := range r.entries {
		for _, v := range list(e) {
			if v == name {
				return plugin, true
			}
		}
	}
	return "", false
}

// dropStale uninstalls what a reloaded plugin registered before and no
// tracked entry lists now. Node types in pendingNodes are kept for a deferred
// registration that has not run yet.
func (r *Registry) dropStale(name string, prev *Entry, pendingNodes []string, errs *bridgeerrors.Chain) {
	for _, command := range prev.Commands {
		errs.Add(r.uninstallCommand(name, command))
	}
	for _, nodeType := range missingFrom(prev.DependNodes, pendingNodes) {
		errs.Add(r.uninstallNode(name, nodeType))
	}
}

func missingFrom(old, current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, v := range current {
		keep[v] = struct{}{}
	}
	var out []string
	for _, v := range old {
		if _, ok := keep[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// OnPluginLoaded handles a plugin-loaded event. The entry is recreated from
// scratch, so loading the same plugin twice leaves exactly the freshly
// queried commands. Whatever the previous load registered and the new one
// does not is uninstalled. Command and node-type failures are isolated from
// each other.
func (r *Registry) OnPluginLoaded(p host.Payload) *Report {
	report := &Report{Errors: bridgeerrors.NewChain()}

	name, err := host.DecodeLoaded(p)
	if err != nil {
		r.logger.Warn("could not decode plugin-loaded payload", zap.Error(err))
		report.Errors.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeDecode, "plugin-loaded payload"))
		return report
	}
	if name == "" {
		return report
	}
	report.Plugin = name

	r.logger.Debug("plugin loaded", zap.String("plugin", name))
	prev := r.replaceEntry(name)
	if prev != nil {
		r.dropCallback(name, prev.CallbackID)
	}
	r.metrics.PluginLoaded()

	cmds, err := r.host.PluginCommands(name)
	if err != nil {
		r.metrics.LookupFailed("commands")
		r.logger.Error("failed to get command list", zap.String("plugin", name), zap.Error(err))
		report.Errors.Add(bridgeerrors.NewLookup(name, "pluginInfo.command", err))
		cmds = nil
	}
	for _, funcName := range cmds {
		report.Errors.Add(r.AddCommand(name, funcName))
	}

	nodeTypes, err := r.host.PluginNodeTypes(name)
	if err != nil {
		r.metrics.LookupFailed("dependNodes")
		r.logger.Error("failed to get depend nodes list", zap.String("plugin", name), zap.Error(err))
		report.Errors.Add(bridgeerrors.NewLookup(name, "pluginInfo.dependNode", err))
		nodeTypes = nil
	}
	if len(nodeTypes) > 0 {
		task := &PendingTask{Plugin: name, Declared: append([]string(nil), nodeTypes...)}
		report.Deferred = r.scheduleNodes(task, report.Errors)
	} else {
		r.track(name, func(e *Entry) { e.state = StateActive })
	}
	if prev != nil {
		var pending []string
		if report.Deferred {
			pending = nodeTypes
		}
		r.dropStale(name, prev, pending, report.Errors)
	}

	r.metrics.SetTracked(r.Len())
	return report
}

// OnPluginUnloaded handles a plugin-unloaded event. Untracked plugins are a no-op.
func (r *Registry) OnPluginUnloaded(p host.Payload) *Report {
	report := &Report{Errors: bridgeerrors.NewChain()}

	name, err := host.DecodeUnloaded(p)
	if err != nil {
		r.logger.Warn("could not decode plugin-unloaded payload", zap.Error(err))
		report.Errors.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeDecode, "plugin-unloaded payload"))
		return report
	}
	if name == "" {
		return report
	}
	report.Plugin = name

	r.logger.Debug("plugin unloaded", zap.String("plugin", name))
	entry := r.pop(name)
	if entry == nil {
		return report
	}
	entry.state = StateUnloaded
	r.metrics.PluginUnloaded()
	r.dropCallback(name, entry.CallbackID)

	if len(entry.Commands) > 0 {
		r.logger.Debug("removing commands",
			zap.String("plugin", name), zap.String("commands", strings.Join(entry.Commands, ", ")))
		for _, command := range entry.Commands {
			report.Errors.Add(r.uninstallCommand(name, command))
		}
	}
	if len(entry.DependNodes) > 0 {
		r.logger.Debug("removing nodes",
			zap.String("plugin", name), zap.String("nodes", strings.Join(entry.DependNodes, ", ")))
		for _, node := range entry.DependNodes {
			report.Errors.Add(r.uninstallNode(name, node))
		}
	}

	r.metrics.SetTracked(r.Len())
	return report
}

// dropCallback removes a callback handle, tolerating absent or stale ones.
func (r *Registry) dropCallback(plugin string, id host.CallbackID) {
	if id.IsZero() {
		return
	}
	if err := r.host.RemoveCallback(id); err != nil {
		r.logger.Warn("could not remove callback",
			zap.String("plugin", plugin), zap.String("callback", string(id)), zap.Error(err))
	}
}

// Entry returns a copy of the entry for name.
func (r *Registry) Entry(name string) (EntrySnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return EntrySnapshot{}, false
	}
	return e.snapshot(), true
}

// Names returns the tracked plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns copies of every entry, ordered by plugin name.
func (r *Registry) Snapshot() []EntrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EntrySnapshot, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of tracked plugins.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
