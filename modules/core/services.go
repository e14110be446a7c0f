package core

import (
	"strings"
	"sync/atomic"
	"time"
)

// ConfigService is a read-only view of the core options.
type ConfigService interface {
	RecordDataTTL() time.Duration
	SearchableTagKeys() []string
	// SampleRate is the share of traces kept, per 10000.
	SampleRate() int
}

// NamingControl normalizes names before they are stored.
type NamingControl interface {
	ServiceName(name string) string
	EndpointName(name string) string
}

// ServerStatus reports how far the boot has progressed.
type ServerStatus interface {
	Booted() bool
	StartedAt() time.Time
	BootedAt() time.Time
}

// HTTPEndpoint is published by modules that serve HTTP.
type HTTPEndpoint interface {
	// Addr is the bound host:port.
	Addr() string
}

type configService struct {
	opts    Options
	tagKeys []string
}

func newConfigService(opts Options) *configService {
	var keys []string
	for _, k := range strings.Split(opts.SearchableTagKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &configService{opts: opts, tagKeys: keys}
}

func (c *configService) RecordDataTTL() time.Duration {
	return time.Duration(c.opts.RecordDataTTLDays) * 24 * time.Hour
}

func (c *configService) SearchableTagKeys() []string {
	return append([]string(nil), c.tagKeys...)
}

func (c *configService) SampleRate() int { return c.opts.SampleRate }

type namingControl struct {
	serviceMax  int
	endpointMax int
}

func (n namingControl) ServiceName(name string) string {
	return truncate(strings.TrimSpace(name), n.serviceMax)
}

func (n namingControl) EndpointName(name string) string {
	return truncate(strings.TrimSpace(name), n.endpointMax)
}

// truncate cuts s to max runes. A max of 0 or less leaves s untouched.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

type serverStatus struct {
	started atomic.Pointer[time.Time]
	booted  atomic.Pointer[time.Time]
}

func (s *serverStatus) Booted() bool { return s.booted.Load() != nil }

func (s *serverStatus) StartedAt() time.Time { return load(&s.started) }

func (s *serverStatus) BootedAt() time.Time { return load(&s.booted) }

func load(p *atomic.Pointer[time.Time]) time.Time {
	if t := p.Load(); t != nil {
		return *t
	}
	return time.Time{}
}
