// Package telemetry is the "telemetry" module. Its single capability,
// MetricsCreator, lets other modules declare counters and histograms without
// knowing which backend collects them.
package telemetry

import (
	"context"

	"github.com/vk/tracegrid/internal/module"
)

// Name is the module name.
const Name = "telemetry"

// Counter is a monotonically increasing metric.
type Counter interface {
	Inc(labelValues ...string)
	Add(v float64, labelValues ...string)
}

// Histogram samples observations into buckets.
type Histogram interface {
	Observe(v float64, labelValues ...string)
}

// MetricsCreator declares metrics. Declaring the same name twice returns
// the metric created first.
type MetricsCreator interface {
	Counter(name, help string, labelNames ...string) (Counter, error)
	Histogram(name, help string, buckets []float64, labelNames ...string) (Histogram, error)
}

// None is the "none" provider. It publishes a creator whose metrics
// discard every update.
type None struct {
	module.Base
	module.Noop
}

// NewNone returns the "none" provider.
func NewNone() module.Provider {
	return &None{Base: module.Base{ModuleName: Name, ProviderName: "none"}}
}

func (n *None) Prepare(_ context.Context, reg module.Registry) error {
	return module.Provide[MetricsCreator](reg, noopCreator{})
}

type noopCreator struct{}

func (noopCreator) Counter(string, string, ...string) (Counter, error) { return noopMetric{}, nil }

func (noopCreator) Histogram(string, string, []float64, ...string) (Histogram, error) {
	return noopMetric{}, nil
}

type noopMetric struct{}

func (noopMetric) Inc(...string)              {}
func (noopMetric) Add(float64, ...string)     {}
func (noopMetric) Observe(float64, ...string) {}
