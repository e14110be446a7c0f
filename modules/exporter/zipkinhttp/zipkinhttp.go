// Package zipkinhttp is the "zipkin-http" exporter provider. It relays every
// accepted batch to an upstream Zipkin-compatible collector.
package zipkinhttp

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
)

// Options configure the upstream collector.
type Options struct {
	URL     string `hcl:"url,optional" toml:"url" yaml:"url" validate:"required,url"`
	Timeout string `hcl:"timeout,optional" toml:"timeout" yaml:"timeout" validate:"required"`
	Gzip    bool   `hcl:"gzip,optional" toml:"gzip" yaml:"gzip"`
}

// Provider is the "zipkin-http" exporter.
type Provider struct {
	module.Base
	module.Noop
	opts    Options
	timeout time.Duration
	client  *client
}

// New returns an unconfigured zipkin-http exporter.
func New() module.Provider {
	return &Provider{
		Base:   module.Base{ModuleName: exporter.Name, ProviderName: "zipkin-http", Requires: []string{core.Name}},
		opts:   Options{Timeout: "10s"},
		client: &client{},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	if err := config.Bind(raw, &p.opts); err != nil {
		return err
	}
	timeout, err := time.ParseDuration(p.opts.Timeout)
	if err != nil || timeout <= 0 {
		return &config.Error{Option: "timeout", Err: fmt.Errorf("%q is not a positive duration", p.opts.Timeout)}
	}
	p.timeout = timeout
	return nil
}

func (p *Provider) Prepare(_ context.Context, reg module.Registry) error {
	p.client.url = p.opts.URL
	p.client.gzip = p.opts.Gzip
	return module.Provide[exporter.SpanExporter](reg, p.client)
}

// Start builds the pooled HTTP client. Idle connections are closed when
// ctx ends.
func (p *Provider) Start(ctx context.Context, _ module.Registry) error {
	p.client.http = &http.Client{
		Timeout: p.timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctxlog.FromContext(ctx).Info("Relaying spans upstream.", "url", p.opts.URL, "timeout", p.timeout)

	go func() {
		<-ctx.Done()
		p.client.http.CloseIdleConnections()
	}()
	return nil
}

type client struct {
	url  string
	gzip bool
	http *http.Client
}

func (c *client) Export(ctx context.Context, spans []core.Span) error {
	if c.http == nil {
		return fmt.Errorf("zipkin-http exporter is not started")
	}

	payload, err := json.Marshal(spans)
	if err != nil {
		return fmt.Errorf("failed to encode spans: %w", err)
	}
	var body bytes.Buffer
	if c.gzip {
		gz := gzip.NewWriter(&body)
		if _, err := gz.Write(payload); err != nil {
			return fmt.Errorf("failed to compress spans: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to compress spans: %w", err)
		}
	} else {
		body.Write(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("upstream collector answered %s", resp.Status)
	}
	ctxlog.FromContext(ctx).Debug("Relayed spans.", "count", len(spans), "status", resp.Status)
	return nil
}
