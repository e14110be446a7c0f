package sqldb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vk/tracegrid/modules/core"
)

// spanRecord is the table row. The indexed columns are the ones queries
// filter on; the full span is kept as JSON in Payload. RetainFrom is the
// span timestamp, or the arrival time for spans without one, in
// microseconds.
type spanRecord struct {
	TraceID     string `gorm:"primaryKey;size:32"`
	SpanID      string `gorm:"primaryKey;size:16"`
	Shared      bool   `gorm:"primaryKey"`
	ParentID    string `gorm:"size:16"`
	ServiceName string `gorm:"size:255;index"`
	Name        string `gorm:"size:255"`
	Kind        string `gorm:"size:16"`
	Timestamp   int64  `gorm:"index"`
	Duration    int64
	RetainFrom  int64  `gorm:"index"`
	Payload     string `gorm:"type:text"`
}

func (spanRecord) TableName() string { return "zipkin_spans" }

func toRecord(s core.Span, arrived time.Time) (spanRecord, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return spanRecord{}, fmt.Errorf("failed to encode span %s: %w", s.ID, err)
	}
	retainFrom := s.Timestamp
	if retainFrom == 0 {
		retainFrom = arrived.UnixMicro()
	}
	return spanRecord{
		TraceID:     s.TraceID,
		SpanID:      s.ID,
		Shared:      s.Shared,
		ParentID:    s.ParentID,
		ServiceName: s.ServiceName(),
		Name:        s.Name,
		Kind:        s.Kind,
		Timestamp:   s.Timestamp,
		Duration:    s.Duration,
		RetainFrom:  retainFrom,
		Payload:     string(payload),
	}, nil
}

func (r spanRecord) span() (core.Span, error) {
	var s core.Span
	if err := json.Unmarshal([]byte(r.Payload), &s); err != nil {
		return core.Span{}, fmt.Errorf("failed to decode span %s: %w", r.SpanID, err)
	}
	return s, nil
}
