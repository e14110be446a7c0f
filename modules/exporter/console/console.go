// Package console is the "console" exporter provider. It prints one line per
// span, with tags in sorted order so output is stable.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
)

// Options configure the console exporter.
type Options struct {
	// Tags prints span tags after the span itself.
	Tags bool `hcl:"tags,optional" toml:"tags" yaml:"tags"`
}

// Provider is the "console" exporter.
type Provider struct {
	module.Base
	module.Noop
	opts Options
	out  io.Writer
}

// New returns a console exporter writing to stdout.
func New() module.Provider {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter returns a console exporter writing to w.
func NewWithWriter(w io.Writer) module.Provider {
	return &Provider{
		Base: module.Base{ModuleName: exporter.Name, ProviderName: "console", Requires: []string{core.Name}},
		out:  w,
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Provider) Prepare(_ context.Context, reg module.Registry) error {
	return module.Provide[exporter.SpanExporter](reg, &printer{out: p.out, tags: p.opts.Tags})
}

type printer struct {
	mu   sync.Mutex
	out  io.Writer
	tags bool
}

func (p *printer) Export(ctx context.Context, spans []core.Span) error {
	ctxlog.FromContext(ctx).Debug("Printing spans.", "count", len(spans))

	var b strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&b, "%s %s %s %q %dus\n", s.TraceID, s.ID, orNull(s.ServiceName()), s.Name, s.Duration)
		if !p.tags {
			continue
		}
		keys := make([]string, 0, len(s.Tags))
		for k := range s.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "      %s = %q\n", k, s.Tags[k])
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.out, b.String())
	return err
}

func orNull(s string) string {
	if s == "" {
		return "(null)"
	}
	return s
}
