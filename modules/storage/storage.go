// Package storage holds the "storage" module's capability contracts and the
// pieces its providers share. The providers live in the memory and sqldb
// subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
)

// Name is the module name.
const Name = "storage"

// ErrNotStarted is returned by a DAO used before its provider started.
var ErrNotStarted = errors.New("storage not started")

// SpanWriter persists spans.
type SpanWriter interface {
	WriteSpans(ctx context.Context, spans []core.Span) error
}

// TraceReader answers trace queries. Results are sorted; an unknown trace
// yields an empty slice.
type TraceReader interface {
	Trace(ctx context.Context, traceID string) ([]core.Span, error)
	ServiceNames(ctx context.Context) ([]string, error)
	SpanNames(ctx context.Context, serviceName string) ([]string, error)
}

// Cleaner removes expired data.
type Cleaner interface {
	// DeleteBefore drops every span that started before cutoff and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DAO is what every storage provider implements.
type DAO interface {
	SpanWriter
	TraceReader
	Cleaner
}

// Provide publishes dao under all three storage capabilities.
func Provide(reg module.Registry, dao DAO) error {
	if err := module.Provide[SpanWriter](reg, dao); err != nil {
		return err
	}
	if err := module.Provide[TraceReader](reg, dao); err != nil {
		return err
	}
	return module.Provide[Cleaner](reg, dao)
}
