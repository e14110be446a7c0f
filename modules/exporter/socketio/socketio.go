// Package socketio is the "socketio" exporter provider. It keeps one
// socket.io client connection for the lifetime of the boot and emits every
// span batch as a single event.
package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrNotConnected is returned by Export while the client is disconnected.
var ErrNotConnected = errors.New("socket.io client is not connected")

// Options configure the socket.io exporter.
type Options struct {
	URL                string `hcl:"url,optional" toml:"url" yaml:"url" validate:"required,url"`
	Namespace          string `hcl:"namespace,optional" toml:"namespace" yaml:"namespace"`
	Path               string `hcl:"path,optional" toml:"path" yaml:"path"`
	Event              string `hcl:"event,optional" toml:"event" yaml:"event" validate:"required"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional" toml:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	WaitConnected      bool   `hcl:"wait_connected,optional" toml:"wait_connected" yaml:"wait_connected"`
	ConnectTimeout     string `hcl:"connect_timeout,optional" toml:"connect_timeout" yaml:"connect_timeout" validate:"required"`
}

// Provider is the "socketio" exporter.
type Provider struct {
	module.Base
	module.Noop
	opts    Options
	timeout time.Duration
	client  *client
}

// New returns an unconfigured socket.io exporter.
func New() module.Provider {
	return &Provider{
		Base: module.Base{ModuleName: exporter.Name, ProviderName: "socketio", Requires: []string{core.Name}},
		opts: Options{
			Namespace:      "/",
			Event:          "spans",
			WaitConnected:  true,
			ConnectTimeout: "15s",
		},
		client: &client{},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	if err := config.Bind(raw, &p.opts); err != nil {
		return err
	}
	timeout, err := time.ParseDuration(p.opts.ConnectTimeout)
	if err != nil || timeout <= 0 {
		return &config.Error{Option: "connect_timeout", Err: fmt.Errorf("%q is not a positive duration", p.opts.ConnectTimeout)}
	}
	p.timeout = timeout
	p.client.event = p.opts.Event
	return nil
}

func (p *Provider) Prepare(_ context.Context, reg module.Registry) error {
	return module.Provide[exporter.SpanExporter](reg, p.client)
}

// Start connects to the server. With wait_connected it blocks until the
// handshake completes or connect_timeout elapses.
func (p *Provider) Start(ctx context.Context, _ module.Registry) error {
	logger := ctxlog.FromContext(ctx).With("url", p.opts.URL)
	logger.Info("Creating socket.io client...")

	parsedURL, err := url.Parse(p.opts.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	switch {
	case p.opts.Path != "":
		opts.SetPath(p.opts.Path)
	case parsedURL.Path != "":
		opts.SetPath(parsedURL.Path)
	}
	if p.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(p.opts.Namespace, opts)

	io.On(types.EventName("connect"), func(...any) {
		p.client.connected.Store(true)
		logger.Info("Socket.io client connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		p.client.connected.Store(false)
		logger.Warn("Socket.io client disconnected.", "reason", reason)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Socket.io connect_error event fired.", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	p.client.socket.Store(io)
	io.Connect()

	go func() {
		<-ctx.Done()
		logger.Info("Closing socket.io client.", "sid", io.Id())
		io.Disconnect()
	}()

	if !p.opts.WaitConnected {
		return nil
	}
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		io.Disconnect()
		return fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(p.timeout):
		io.Disconnect()
		return fmt.Errorf("timed out after %s waiting for socket.io connection", p.timeout)
	}
}

// client is the published SpanExporter. The socket is attached in Start.
type client struct {
	event     string
	socket    atomic.Pointer[socket.Socket]
	connected atomic.Bool
}

func (c *client) Export(ctx context.Context, spans []core.Span) error {
	io := c.socket.Load()
	if io == nil || !c.connected.Load() {
		return ErrNotConnected
	}
	ctxlog.FromContext(ctx).Debug("Emitting spans.", "event", c.event, "count", len(spans))
	io.Emit(c.event, spans)
	return nil
}
