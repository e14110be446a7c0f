// Package query is the "query-zipkin" module. It serves the read side of
// the Zipkin v2 API from whatever storage provider is booted.
package query

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/httpserver"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/storage"
)

// Name is the module name.
const Name = "query-zipkin"

// Options configure the query API listener.
type Options struct {
	Host        string `hcl:"host,optional" toml:"host" yaml:"host"`
	Port        int    `hcl:"port,optional" toml:"port" yaml:"port" validate:"min=0,max=65535"`
	ContextPath string `hcl:"context_path,optional" toml:"context_path" yaml:"context_path" validate:"startswith=/"`
}

// Provider is the "default" query provider.
type Provider struct {
	module.Base
	opts   Options
	reader storage.TraceReader
	config core.ConfigService
	server *httpserver.Server
}

// New returns an unconfigured query provider.
func New() module.Provider {
	return &Provider{
		Base: module.Base{ModuleName: Name, ProviderName: "default", Requires: []string{core.Name, storage.Name}},
		opts: Options{Host: "0.0.0.0", Port: 9412, ContextPath: "/"},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Provider) Prepare(context.Context, module.Registry) error { return nil }

func (p *Provider) Start(ctx context.Context, reg module.Registry) error {
	cfg, err := module.Find[core.ConfigService](reg, core.Name)
	if err != nil {
		return err
	}
	p.config = cfg
	reader, err := module.Find[storage.TraceReader](reg, storage.Name)
	if err != nil {
		return err
	}
	p.reader = reader

	srv, err := httpserver.Listen(ctx, Name, p.opts.Host, p.opts.Port)
	if err != nil {
		return err
	}
	p.server = srv
	return module.Provide[core.HTTPEndpoint](reg, srv)
}

func (p *Provider) NotifyAfterCompleted(ctx context.Context, _ module.Registry) error {
	return p.server.Serve(ctx, p.routes())
}

func (p *Provider) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route(strings.TrimSuffix(p.opts.ContextPath, "/")+"/api/v2", func(r chi.Router) {
		r.Get("/services", p.services)
		r.Get("/spans", p.spanNames)
		r.Get("/trace/{traceId}", p.trace)
		r.Get("/autocompleteKeys", p.autocompleteKeys)
	})
	return r
}

func (p *Provider) services(w http.ResponseWriter, r *http.Request) {
	names, err := p.reader.ServiceNames(r.Context())
	respond(w, r, names, err)
}

func (p *Provider) spanNames(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("serviceName")
	if service == "" {
		http.Error(w, "serviceName is required", http.StatusBadRequest)
		return
	}
	names, err := p.reader.SpanNames(r.Context(), service)
	respond(w, r, names, err)
}

// autocompleteKeys lists the tag keys core marks as searchable.
func (p *Provider) autocompleteKeys(w http.ResponseWriter, r *http.Request) {
	keys := p.config.SearchableTagKeys()
	if keys == nil {
		keys = []string{}
	}
	respond(w, r, keys, nil)
}

func (p *Provider) trace(w http.ResponseWriter, r *http.Request) {
	spans, err := p.reader.Trace(r.Context(), core.NormalizeTraceID(chi.URLParam(r, "traceId")))
	if err == nil && len(spans) == 0 {
		http.Error(w, "trace not found", http.StatusNotFound)
		return
	}
	respond(w, r, spans, err)
}

func respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("Query failed.", "path", r.URL.Path, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.FromContext(r.Context()).Debug("Failed to write response.", "error", err)
	}
}
