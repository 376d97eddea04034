// Package inspect serves a read-only JSON view of the live registries.
package inspect

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/leeforge/hostbridge/commands"
	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/http/responder"
	"github.com/leeforge/hostbridge/metrics"
	"github.com/leeforge/hostbridge/nodetypes"
	"github.com/leeforge/hostbridge/plugin"
)

// Source is what the router reads from. *runtime.Bridge implements it.
type Source interface {
	Host() host.Host
	Plugins() *plugin.Registry
	Commands() *commands.Registry
	Bindings() *commands.Bindings
	Namespace() *commands.Namespace
	Aggregate() *commands.Namespace
	NodeTypes() *nodetypes.Namespace
	Metrics() *metrics.Collector
	Started() (bool, time.Time)
}

// CommandView describes one known command.
type CommandView struct {
	Name        string            `json:"name"`
	Plugin      string            `json:"plugin,omitempty"`
	Description string            `json:"description,omitempty"`
	Flags       map[string]string `json:"flags,omitempty"`
	Builtin     bool              `json:"builtin"`
	Bound       bool              `json:"bound"`
	Wrapped     bool              `json:"wrapped"`
	Aggregate   bool              `json:"aggregate"`
}

// NodeTypeView describes one registered node-type class.
type NodeTypeView struct {
	Name    string   `json:"name"`
	Parent  string   `json:"parent"`
	Methods []string `json:"methods"`
}

// StatusView summarizes the bridge.
type StatusView struct {
	HostVersion string    `json:"hostVersion"`
	Started     bool      `json:"started"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	Plugins     int       `json:"plugins"`
	Commands    int       `json:"commands"`
	NodeTypes   int       `json:"nodeTypes"`
}

type startKey struct{}

// timing records the request start so handlers can report how long they took.
func timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), startKey{}, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func took(r *http.Request) responder.Option {
	start, ok := r.Context().Value(startKey{}).(time.Time)
	if !ok {
		return responder.WithTook(0)
	}
	return responder.WithTook(time.Since(start).Milliseconds())
}

// NewRouter returns the inspection routes over src.
func NewRouter(src Source) chi.Router {
	h := &handlers{src: src}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(timing)
	r.NotFound(responder.RouteNotFound)
	r.MethodNotAllowed(responder.MethodNotAllowed)

	r.Get("/status", h.status)
	r.Route("/plugins", func(r chi.Router) {
		r.Get("/", h.listPlugins)
		r.Get("/{name}", h.getPlugin)
	})
	r.Route("/commands", func(r chi.Router) {
		r.Get("/", h.listCommands)
		r.Get("/{name}", h.getCommand)
	})
	r.Get("/nodetypes", h.listNodeTypes)
	r.Method(http.MethodGet, "/metrics", src.Metrics().Handler())
	return r
}

type handlers struct {
	src Source
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	started, at := h.src.Started()
	responder.OK(w, StatusView{
		HostVersion: h.src.Host().Version().String(),
		Started:     started,
		StartedAt:   at,
		Plugins:     h.src.Plugins().Len(),
		Commands:    len(h.src.Namespace().Names()),
		NodeTypes:   len(h.src.NodeTypes().Names()),
	}, took(r))
}

func (h *handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	responder.WriteList(w, h.src.Plugins().Snapshot(), took(r))
}

func (h *handlers) getPlugin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.src.Plugins().Entry(name)
	if !ok {
		responder.NotFound(w, "plugin "+name+" is not tracked", took(r))
		return
	}
	responder.OK(w, entry, took(r))
}

func (h *handlers) commandView(name string) (CommandView, bool) {
	info, ok := h.src.Commands().Info(name)
	if !ok {
		return CommandView{}, false
	}
	v := CommandView{
		Name:        name,
		Plugin:      info.Plugin,
		Description: info.Description,
		Flags:       info.Flags,
		Builtin:     h.src.Commands().IsBuiltin(name),
		Bound:       h.src.Bindings().Has(name),
		Wrapped:     h.src.Namespace().Has(name),
	}
	if agg := h.src.Aggregate(); agg != nil {
		v.Aggregate = agg.Has(name)
	}
	return v, true
}

func (h *handlers) listCommands(w http.ResponseWriter, r *http.Request) {
	names := h.src.Commands().Names()
	views := make([]CommandView, 0, len(names))
	for _, name := range names {
		if v, ok := h.commandView(name); ok {
			views = append(views, v)
		}
	}
	responder.WriteList(w, views, took(r))
}

func (h *handlers) getCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := h.commandView(name)
	if !ok {
		responder.NotFound(w, "command "+name+" is not known", took(r))
		return
	}
	responder.OK(w, v, took(r))
}

func (h *handlers) listNodeTypes(w http.ResponseWriter, r *http.Request) {
	ns := h.src.NodeTypes()
	names := ns.Names()
	views := make([]NodeTypeView, 0, len(names))
	for _, name := range names {
		class, ok := ns.Lookup(name)
		if !ok {
			continue
		}
		views = append(views, NodeTypeView{
			Name:    class.Name,
			Parent:  class.Parent,
			Methods: class.Methods.Names(),
		})
	}
	responder.WriteList(w, views, took(r))
}
