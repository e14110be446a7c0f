package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vk/tracegrid/modules/core"
)

// Store keeps spans in process, grouped by trace. When more than maxSpans
// spans are held, whole traces are evicted oldest first.
type Store struct {
	mu       sync.RWMutex
	maxSpans int
	traces   map[string][]entry
	order    []string
	total    int
	now      func() time.Time
}

// entry is a stored span and the moment retention counts from: the span's
// own timestamp, or its arrival when the span carries none.
type entry struct {
	span       core.Span
	retainFrom time.Time
}

// NewStore creates an empty store.
func NewStore(maxSpans int) *Store {
	return &Store{maxSpans: maxSpans, traces: make(map[string][]entry), now: time.Now}
}

// WriteSpans stores spans. A span with the same trace, id and shared flag
// as a stored one replaces it.
func (s *Store) WriteSpans(_ context.Context, spans []core.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	arrived := s.now()
	for _, span := range spans {
		e := entry{span: span, retainFrom: arrived}
		if span.Timestamp != 0 {
			e.retainFrom = span.StartTime()
		}
		stored, seen := s.traces[span.TraceID]
		if !seen {
			s.order = append(s.order, span.TraceID)
		}
		idx := slices.IndexFunc(stored, func(o entry) bool {
			return o.span.ID == span.ID && o.span.Shared == span.Shared
		})
		if idx >= 0 {
			stored[idx] = e
			continue
		}
		s.traces[span.TraceID] = append(stored, e)
		s.total++
	}
	s.evict()
	return nil
}

func (s *Store) evict() {
	for s.maxSpans > 0 && s.total > s.maxSpans && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		s.total -= len(s.traces[oldest])
		delete(s.traces, oldest)
	}
}

// Trace returns the spans of a trace ordered by start time.
func (s *Store) Trace(_ context.Context, traceID string) ([]core.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spans := make([]core.Span, 0, len(s.traces[traceID]))
	for _, e := range s.traces[traceID] {
		spans = append(spans, e.span)
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Timestamp < spans[j].Timestamp })
	return spans, nil
}

// ServiceNames returns every local service name seen.
func (s *Store) ServiceNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(span core.Span) (string, bool) {
		name := span.ServiceName()
		return name, name != ""
	}), nil
}

// SpanNames returns the span names recorded for a service.
func (s *Store) SpanNames(_ context.Context, serviceName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(span core.Span) (string, bool) {
		return span.Name, span.Name != "" && span.ServiceName() == serviceName
	}), nil
}

func (s *Store) collect(pick func(core.Span) (string, bool)) []string {
	set := make(map[string]struct{})
	for _, entries := range s.traces {
		for _, e := range entries {
			if v, ok := pick(e.span); ok {
				set[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DeleteBefore drops spans that started before cutoff. Spans without a
// timestamp expire by their arrival time.
func (s *Store) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	order := s.order[:0]
	for _, traceID := range s.order {
		before := len(s.traces[traceID])
		kept := slices.DeleteFunc(s.traces[traceID], func(e entry) bool {
			return e.retainFrom.Before(cutoff)
		})
		removed += int64(before - len(kept))
		if len(kept) == 0 {
			delete(s.traces, traceID)
			continue
		}
		s.traces[traceID] = kept
		order = append(order, traceID)
	}
	s.order = order
	s.total -= int(removed)
	return removed, nil
}

// Len returns the number of spans held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
