package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Endpoint is the network context of a span.
type Endpoint struct {
	ServiceName string `json:"serviceName,omitempty"`
	IPv4        string `json:"ipv4,omitempty"`
	IPv6        string `json:"ipv6,omitempty"`
	Port        int    `json:"port,omitempty"`
}

// Annotation is a timestamped event within a span.
type Annotation struct {
	Timestamp int64  `json:"timestamp"`
	Value     string `json:"value"`
}

// Span is a Zipkin v2 span. Timestamp and Duration are in microseconds.
type Span struct {
	TraceID        string            `json:"traceId"`
	ID             string            `json:"id"`
	ParentID       string            `json:"parentId,omitempty"`
	Name           string            `json:"name,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	Timestamp      int64             `json:"timestamp,omitempty"`
	Duration       int64             `json:"duration,omitempty"`
	Debug          bool              `json:"debug,omitempty"`
	Shared         bool              `json:"shared,omitempty"`
	LocalEndpoint  *Endpoint         `json:"localEndpoint,omitempty"`
	RemoteEndpoint *Endpoint         `json:"remoteEndpoint,omitempty"`
	Annotations    []Annotation      `json:"annotations,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// ServiceName is the local endpoint's service, or "" when absent.
func (s *Span) ServiceName() string {
	if s.LocalEndpoint == nil {
		return ""
	}
	return s.LocalEndpoint.ServiceName
}

// StartTime converts Timestamp to a time.Time.
func (s *Span) StartTime() time.Time {
	return time.UnixMicro(s.Timestamp)
}

// Normalize lower-cases the ids and left-pads them with zeros to 16 hex
// characters, or 32 for trace ids longer than 16.
func (s *Span) Normalize() {
	s.TraceID = NormalizeTraceID(s.TraceID)
	s.ID = padID(s.ID, 16)
	if s.ParentID != "" {
		s.ParentID = padID(s.ParentID, 16)
	}
}

// NormalizeTraceID is the trace id form spans are stored under.
func NormalizeTraceID(id string) string {
	if len(id) > 16 {
		return padID(id, 32)
	}
	return padID(id, 16)
}

func padID(id string, width int) string {
	id = strings.ToLower(id)
	if id == "" || len(id) >= width {
		return id
	}
	return strings.Repeat("0", width-len(id)) + id
}

// Validate checks the fields every stored span needs. Ids are 1 to 16 hex
// characters, trace ids up to 32.
func (s *Span) Validate() error {
	if err := checkHexID("traceId", s.TraceID, 32); err != nil {
		return err
	}
	if err := checkHexID("id", s.ID, 16); err != nil {
		return err
	}
	if s.ParentID != "" {
		if err := checkHexID("parentId", s.ParentID, 16); err != nil {
			return err
		}
	}
	if s.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

func checkHexID(field, value string, maxLen int) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(value) > maxLen {
		return fmt.Errorf("%s %q has length %d, want at most %d", field, value, len(value), maxLen)
	}
	for _, r := range value {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return fmt.Errorf("%s %q is not lower-case hex", field, value)
		}
	}
	return nil
}
