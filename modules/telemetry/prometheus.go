package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/httpserver"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
)

// PrometheusOptions configure the metrics endpoint.
type PrometheusOptions struct {
	Host string `hcl:"host,optional" toml:"host" yaml:"host"`
	Port int    `hcl:"port,optional" toml:"port" yaml:"port" validate:"min=0,max=65535"`
}

// Prometheus is the "prometheus" provider. Metrics live in a registry owned
// by this provider instance, so every boot starts from zero.
type Prometheus struct {
	module.Base
	opts     PrometheusOptions
	registry *prometheus.Registry
	server   *httpserver.Server
}

// NewPrometheus returns the "prometheus" provider.
func NewPrometheus() module.Provider {
	return &Prometheus{
		Base: module.Base{ModuleName: Name, ProviderName: "prometheus"},
		opts: PrometheusOptions{Host: "0.0.0.0", Port: 1234},
	}
}

func (p *Prometheus) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Prometheus) Prepare(_ context.Context, reg module.Registry) error {
	p.registry = prometheus.NewRegistry()
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return module.Provide[MetricsCreator](reg, &promCreator{registry: p.registry})
}

func (p *Prometheus) Start(ctx context.Context, reg module.Registry) error {
	srv, err := httpserver.Listen(ctx, "telemetry", p.opts.Host, p.opts.Port)
	if err != nil {
		return err
	}
	p.server = srv
	return module.Provide[core.HTTPEndpoint](reg, srv)
}

func (p *Prometheus) NotifyAfterCompleted(ctx context.Context, _ module.Registry) error {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	ctxlog.FromContext(ctx).Info("Serving Prometheus metrics.", "url", p.server.URL()+"/metrics")
	return p.server.Serve(ctx, r)
}

type promCreator struct {
	registry *prometheus.Registry
}

func (c *promCreator) Counter(name, help string, labelNames ...string) (Counter, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labelNames)
	existing, err := register(c.registry, vec)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		vec = existing.(*prometheus.CounterVec)
	}
	return promCounter{vec: vec}, nil
}

func (c *promCreator) Histogram(name, help string, buckets []float64, labelNames ...string) (Histogram, error) {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labelNames)
	existing, err := register(c.registry, vec)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		vec = existing.(*prometheus.HistogramVec)
	}
	return promHistogram{vec: vec}, nil
}

// register returns the already registered collector when an identical one
// exists.
func register(reg *prometheus.Registry, c prometheus.Collector) (prometheus.Collector, error) {
	err := reg.Register(c)
	if err == nil {
		return nil, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector, nil
	}
	return nil, fmt.Errorf("failed to register metric: %w", err)
}

type promCounter struct{ vec *prometheus.CounterVec }

func (c promCounter) Inc(labelValues ...string) { c.vec.WithLabelValues(labelValues...).Inc() }

func (c promCounter) Add(v float64, labelValues ...string) {
	c.vec.WithLabelValues(labelValues...).Add(v)
}

type promHistogram struct{ vec *prometheus.HistogramVec }

func (h promHistogram) Observe(v float64, labelValues ...string) {
	h.vec.WithLabelValues(labelValues...).Observe(v)
}
