package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records plugin registry activity.
//
// All methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	loads     prometheus.Counter
	unloads   prometheus.Counter
	deferred  prometheus.Counter
	commands  *prometheus.CounterVec
	nodes     *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	logLevels *prometheus.CounterVec
	tracked   prometheus.Gauge
}

// NewCollector creates a collector registering its metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_loads_total",
			Help:      "Plugin-loaded events handled.",
		}),
		unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_unloads_total",
			Help:      "Plugin-unloaded events that removed a tracked plugin.",
		}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_node_registrations_total",
			Help:      "Node registrations postponed until a scene finished opening.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Command wrapper activity by action.",
		}, []string{"action"}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_types_total",
			Help:      "Node-type class activity by action.",
		}, []string{"action"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_failures_total",
			Help:      "Failed host queries by query.",
		}, []string{"query"}),
		logLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Log entries by level.",
		}, []string{"level"}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_plugins",
			Help:      "Plugins currently present in the registry.",
		}),
	}

	c.registry.MustRegister(
		c.loads, c.unloads, c.deferred,
		c.commands, c.nodes, c.lookups, c.logLevels,
		c.tracked,
	)
	return c
}

// Command actions.
const (
	ActionBound     = "bound"
	ActionUnbound   = "unbound"
	ActionFailed    = "failed"
	ActionAdded     = "added"
	ActionRemoved   = "removed"
	ActionMissing   = "missing"
	ActionInstalled = "installed"
)

func (c *Collector) PluginLoaded() {
	if c == nil {
		return
	}
	c.loads.Inc()
}

func (c *Collector) PluginUnloaded() {
	if c == nil {
		return
	}
	c.unloads.Inc()
}

func (c *Collector) RegistrationDeferred() {
	if c == nil {
		return
	}
	c.deferred.Inc()
}

// Command counts one command action.
func (c *Collector) Command(action string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(action).Inc()
}

// Node counts one node-type action.
func (c *Collector) Node(action string) {
	if c == nil {
		return
	}
	c.nodes.WithLabelValues(action).Inc()
}

// LookupFailed counts a failed host query.
func (c *Collector) LookupFailed(query string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(query).Inc()
}

// LogEntry counts a log entry at level.
func (c *Collector) LogEntry(level string) {
	if c == nil {
		return
	}
	c.logLevels.WithLabelValues(level).Inc()
}

// SetTracked sets the number of tracked plugins.
func (c *Collector) SetTracked(n int) {
	if c == nil {
		return
	}
	c.tracked.Set(float64(n))
}

// Values gathers every sample into a flat map keyed by metric name, with each
// label value appended after a slash.
func (c *Collector) Values() (map[string]float64, error) {
	out := make(map[string]float64)
	if c == nil {
		return out, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

// Registry returns the underlying prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
