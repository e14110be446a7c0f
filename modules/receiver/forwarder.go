package receiver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/vk/tracegrid/modules/storage"
	"github.com/vk/tracegrid/modules/telemetry"
)

// Span outcomes, used as the "outcome" metric label.
const (
	OutcomeAccepted   = "accepted"
	OutcomeSampledOut = "sampled_out"
	OutcomeInvalid    = "invalid"
	OutcomeFailed     = "failed"
)

// SpanForwarder moves a decoded batch through normalization, sampling,
// storage and export.
type SpanForwarder struct {
	naming   core.NamingControl
	config   core.ConfigService
	writer   storage.SpanWriter
	exporter exporter.SpanExporter
	spans    telemetry.Counter
}

// NewSpanForwarder wires a forwarder and declares its metrics.
func NewSpanForwarder(
	naming core.NamingControl,
	cfg core.ConfigService,
	writer storage.SpanWriter,
	exp exporter.SpanExporter,
	metrics telemetry.MetricsCreator,
) (*SpanForwarder, error) {
	spans, err := metrics.Counter("tracegrid_receiver_spans_total", "Spans received, by outcome.", "outcome")
	if err != nil {
		return nil, err
	}
	return &SpanForwarder{naming: naming, config: cfg, writer: writer, exporter: exp, spans: spans}, nil
}

// Forward stores the sampled part of spans and hands it to the exporter.
// Only a storage failure is returned; export failures are logged.
func (f *SpanForwarder) Forward(ctx context.Context, spans []core.Span) (int, error) {
	logger := ctxlog.FromContext(ctx)

	kept := make([]core.Span, 0, len(spans))
	for _, s := range spans {
		if !s.Debug && !sampled(s.TraceID, f.config.SampleRate()) {
			continue
		}
		kept = append(kept, f.normalize(s))
	}
	if dropped := len(spans) - len(kept); dropped > 0 {
		f.spans.Add(float64(dropped), OutcomeSampledOut)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	if err := f.writer.WriteSpans(ctx, kept); err != nil {
		f.spans.Add(float64(len(kept)), OutcomeFailed)
		return 0, fmt.Errorf("failed to store spans: %w", err)
	}
	f.spans.Add(float64(len(kept)), OutcomeAccepted)

	if err := f.exporter.Export(ctx, kept); err != nil {
		logger.Warn("Span export failed.", "count", len(kept), "error", err)
	}
	return len(kept), nil
}

func (f *SpanForwarder) normalize(s core.Span) core.Span {
	s.Name = f.naming.EndpointName(s.Name)
	if s.LocalEndpoint != nil {
		ep := *s.LocalEndpoint
		ep.ServiceName = f.naming.ServiceName(ep.ServiceName)
		s.LocalEndpoint = &ep
	}
	if s.RemoteEndpoint != nil {
		ep := *s.RemoteEndpoint
		ep.ServiceName = f.naming.ServiceName(ep.ServiceName)
		s.RemoteEndpoint = &ep
	}
	return s
}

// sampled decides by trace id, so every span of a trace gets the same
// verdict. rate is per 10000.
func sampled(traceID string, rate int) bool {
	if rate >= 10000 {
		return true
	}
	if rate <= 0 {
		return false
	}
	low := traceID
	if len(low) > 16 {
		low = low[len(low)-16:]
	}
	v, err := strconv.ParseUint(low, 16, 64)
	if err != nil {
		return true
	}
	return v%10000 < uint64(rate)
}
