// Package exporter is the "exporter" module: it forwards accepted spans to
// an external consumer. The "none" provider lives here; the others are in
// subpackages.
package exporter

import (
	"context"

	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
)

// Name is the module name.
const Name = "exporter"

// SpanExporter receives every batch after it was stored.
type SpanExporter interface {
	Export(ctx context.Context, spans []core.Span) error
}

// None is the "none" provider; it drops every batch.
type None struct {
	module.Base
	module.Noop
}

// NewNone returns the "none" provider.
func NewNone() module.Provider {
	return &None{Base: module.Base{ModuleName: Name, ProviderName: "none", Requires: []string{core.Name}}}
}

func (n *None) Prepare(_ context.Context, reg module.Registry) error {
	return module.Provide[SpanExporter](reg, Discard{})
}

// Discard is a SpanExporter that does nothing.
type Discard struct{}

func (Discard) Export(context.Context, []core.Span) error { return nil }
