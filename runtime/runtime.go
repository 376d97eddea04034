// Package runtime wires a host to the command and node-type registries and
// keeps them synchronized through a plugin lifecycle listener.
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/leeforge/hostbridge/commands"
	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/logging"
	"github.com/leeforge/hostbridge/metrics"
	"github.com/leeforge/hostbridge/nodetypes"
	"github.com/leeforge/hostbridge/plugin"
	"go.uber.org/zap"
)

const (
	// PrimaryNamespace names the namespace every wrapper is bound into.
	PrimaryNamespace = "core"
	// AggregateNamespace names the optional secondary namespace.
	AggregateNamespace = "all"
)

// Config holds configuration for creating a new Bridge.
type Config struct {
	Host   host.Host
	Logger *zap.Logger

	// Builtins are commands present before any plugin loads. Unloads never
	// remove them.
	Builtins []host.CommandInfo

	// Aggregate loads the secondary namespace so wrappers are bound twice.
	Aggregate bool

	ExtraMethods *nodetypes.ExtraMethods

	// Metrics defaults to a collector under MetricsNamespace.
	Metrics          *metrics.Collector
	MetricsNamespace string
}

// Bridge owns the registries for one host.
type Bridge struct {
	host    host.Host
	logger  *zap.Logger
	metrics *metrics.Collector

	commands   *commands.Registry
	bindings   *commands.Bindings
	namespaces *commands.Namespaces
	nodeTypes  *nodetypes.Namespace
	extras     *nodetypes.ExtraMethods

	registry *plugin.Registry
	listener *plugin.Listener

	mu        sync.Mutex
	started   bool
	startedAt time.Time
}

// New creates a bridge. Nothing is subscribed until Start.
func New(cfg Config) (*Bridge, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("runtime: host is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Global()
	}
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = "hostbridge"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector(cfg.MetricsNamespace)
	}
	if cfg.ExtraMethods == nil {
		cfg.ExtraMethods = nodetypes.NewExtraMethods()
	}

	logger := logging.WithHooks(cfg.Logger, logging.LevelCounter(cfg.Metrics.LogEntry))

	b := &Bridge{
		host:       cfg.Host,
		logger:     logger,
		metrics:    cfg.Metrics,
		commands:   commands.NewRegistry(cfg.Builtins...),
		bindings:   commands.NewBindings(cfg.Host),
		namespaces: commands.NewNamespaces(commands.NewNamespace(PrimaryNamespace)),
		nodeTypes:  nodetypes.NewNamespace(),
		extras:     cfg.ExtraMethods,
	}
	if cfg.Aggregate {
		b.namespaces.LoadAggregate(commands.NewNamespace(AggregateNamespace))
	}

	reg, err := plugin.NewRegistry(plugin.Config{
		Host:         cfg.Host,
		Commands:     b.commands,
		Bindings:     b.bindings,
		Namespaces:   b.namespaces,
		Functions:    commands.NewFunctionFactory(b.commands, b.bindings),
		Nodes:        nodetypes.NewClassFactory(b.nodeTypes),
		ExtraMethods: b.extras,
		Metrics:      b.metrics,
		Logger:       logger.Named("plugin"),
	})
	if err != nil {
		return nil, err
	}
	b.registry = reg
	b.listener = plugin.NewListener(reg, cfg.Host, logger.Named("listener"))
	return b, nil
}

// Start installs the lifecycle listeners and registers plugins the host has
// already loaded. Calling it again is harmless.
func (b *Bridge) Start() error {
	b.mu.Lock()
	first := !b.started
	b.started = true
	if first {
		b.startedAt = time.Now()
	}
	b.mu.Unlock()

	startTime := time.Now()
	err := b.listener.Install()
	if err != nil {
		b.logger.Error("lifecycle listener installed with errors", zap.Error(err))
	}
	if first {
		b.logger.Info("bridge started",
			zap.Stringer("hostVersion", b.host.Version()),
			zap.Int("plugins", b.registry.Len()),
			zap.Duration("duration", time.Since(startTime)),
		)
	}
	return err
}

// Started reports whether Start has run and when.
func (b *Bridge) Started() (bool, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started, b.startedAt
}

// Host returns the host the bridge follows.
func (b *Bridge) Host() host.Host { return b.host }

// Plugins returns the plugin registry.
func (b *Bridge) Plugins() *plugin.Registry { return b.registry }

// Listener returns the lifecycle listener.
func (b *Bridge) Listener() *plugin.Listener { return b.listener }

// Commands returns the command metadata registry.
func (b *Bridge) Commands() *commands.Registry { return b.commands }

// Bindings returns the low-level command bindings.
func (b *Bridge) Bindings() *commands.Bindings { return b.bindings }

// Namespace returns the primary command namespace.
func (b *Bridge) Namespace() *commands.Namespace { return b.namespaces.Primary() }

// Aggregate returns the secondary namespace, or nil when it is not loaded.
func (b *Bridge) Aggregate() *commands.Namespace {
	agg, ok := b.namespaces.Aggregate()
	if !ok {
		return nil
	}
	return agg
}

// NodeTypes returns the node-type class namespace.
func (b *Bridge) NodeTypes() *nodetypes.Namespace { return b.nodeTypes }

// ExtraMethods returns the per-plugin extra method table.
func (b *Bridge) ExtraMethods() *nodetypes.ExtraMethods { return b.extras }

// Metrics returns the activity collector.
func (b *Bridge) Metrics() *metrics.Collector { return b.metrics }

// Logger returns the bridge logger.
func (b *Bridge) Logger() *zap.Logger { return b.logger }
