// Package receiver is the "receiver-zipkin-http" module. It accepts Zipkin
// v2 JSON span batches over HTTP and forwards them to storage and the
// exporter.
package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/httpserver"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/vk/tracegrid/modules/storage"
	"github.com/vk/tracegrid/modules/telemetry"
)

// Name is the module name.
const Name = "receiver-zipkin-http"

// Options configure the HTTP collector.
type Options struct {
	Host         string `hcl:"host,optional" toml:"host" yaml:"host"`
	Port         int    `hcl:"port,optional" toml:"port" yaml:"port" validate:"min=0,max=65535"`
	ContextPath  string `hcl:"context_path,optional" toml:"context_path" yaml:"context_path" validate:"startswith=/"`
	MaxBodyBytes int64  `hcl:"max_body_bytes,optional" toml:"max_body_bytes" yaml:"max_body_bytes" validate:"min=1"`
	ReadTimeout  string `hcl:"read_timeout,optional" toml:"read_timeout" yaml:"read_timeout" validate:"required"`
}

// Provider is the "default" receiver provider.
type Provider struct {
	module.Base
	opts        Options
	readTimeout time.Duration
	server      *httpserver.Server
	handler     *handler
}

// New returns an unconfigured receiver.
func New() module.Provider {
	return &Provider{
		Base: module.Base{
			ModuleName:   Name,
			ProviderName: "default",
			Requires:     []string{core.Name, storage.Name, exporter.Name, telemetry.Name},
		},
		opts: Options{
			Host:         "0.0.0.0",
			Port:         9411,
			ContextPath:  "/",
			MaxBodyBytes: 4 << 20,
			ReadTimeout:  "30s",
		},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	if err := config.Bind(raw, &p.opts); err != nil {
		return err
	}
	d, err := time.ParseDuration(p.opts.ReadTimeout)
	if err != nil || d <= 0 {
		return &config.Error{Option: "read_timeout", Err: fmt.Errorf("%q is not a positive duration", p.opts.ReadTimeout)}
	}
	p.readTimeout = d
	return nil
}

func (p *Provider) Prepare(context.Context, module.Registry) error { return nil }

// Start resolves the services the receiver forwards to and binds the
// listener. The endpoint is not served until the boot completes.
func (p *Provider) Start(ctx context.Context, reg module.Registry) error {
	cfg, err := module.Find[core.ConfigService](reg, core.Name)
	if err != nil {
		return err
	}
	naming, err := module.Find[core.NamingControl](reg, core.Name)
	if err != nil {
		return err
	}
	writer, err := module.Find[storage.SpanWriter](reg, storage.Name)
	if err != nil {
		return err
	}
	exp, err := module.Find[exporter.SpanExporter](reg, exporter.Name)
	if err != nil {
		return err
	}
	metrics, err := module.Find[telemetry.MetricsCreator](reg, telemetry.Name)
	if err != nil {
		return err
	}

	forwarder, err := NewSpanForwarder(naming, cfg, writer, exp, metrics)
	if err != nil {
		return err
	}
	latency, err := metrics.Histogram("tracegrid_receiver_request_duration_seconds", "Collector request latency.", nil, "route")
	if err != nil {
		return err
	}
	p.handler = &handler{forwarder: forwarder, maxBodyBytes: p.opts.MaxBodyBytes, spans: forwarder.spans, latency: latency}

	srv, err := httpserver.Listen(ctx, Name, p.opts.Host, p.opts.Port)
	if err != nil {
		return err
	}
	srv.SetReadTimeout(p.readTimeout)
	p.server = srv
	ctxlog.FromContext(ctx).Debug("Receiver listener bound.", "address", srv.Addr())
	return module.Provide[core.HTTPEndpoint](reg, srv)
}

func (p *Provider) NotifyAfterCompleted(ctx context.Context, _ module.Registry) error {
	return p.server.Serve(ctx, p.handler.routes(p.opts.ContextPath))
}
