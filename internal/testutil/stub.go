package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/module"
)

// Journal records lifecycle calls across providers, in call order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Record appends "module:event".
func (j *Journal) Record(moduleName, event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf("%s:%s", moduleName, event))
}

// Entries returns a copy of everything recorded so far.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Count returns how often "module:event" was recorded.
func (j *Journal) Count(moduleName, event string) int {
	want := fmt.Sprintf("%s:%s", moduleName, event)
	n := 0
	for _, e := range j.Entries() {
		if e == want {
			n++
		}
	}
	return n
}

// HookFunc is a scripted lifecycle hook.
type HookFunc func(ctx context.Context, reg module.Registry) error

// StubProvider is a provider whose hooks are plain functions. Every call is
// recorded into Journal, when set, before the hook runs.
type StubProvider struct {
	module.Base

	Journal     *Journal
	OnConfigure func(raw config.Options) error
	OnPrepare   HookFunc
	OnStart     HookFunc
	OnNotify    HookFunc
}

// NewStub returns a stub provider named "default" for the module.
func NewStub(j *Journal, moduleName string, requires ...string) *StubProvider {
	return &StubProvider{
		Base:    module.Base{ModuleName: moduleName, ProviderName: "default", Requires: requires},
		Journal: j,
	}
}

func (s *StubProvider) record(event string) {
	if s.Journal != nil {
		s.Journal.Record(s.Module(), event)
	}
}

func (s *StubProvider) MaterializeConfig(raw config.Options) error {
	s.record("configure")
	if s.OnConfigure != nil {
		return s.OnConfigure(raw)
	}
	return nil
}

func (s *StubProvider) Prepare(ctx context.Context, reg module.Registry) error {
	s.record("prepare")
	if s.OnPrepare != nil {
		return s.OnPrepare(ctx, reg)
	}
	return nil
}

func (s *StubProvider) Start(ctx context.Context, reg module.Registry) error {
	s.record("start")
	if s.OnStart != nil {
		return s.OnStart(ctx, reg)
	}
	return nil
}

func (s *StubProvider) NotifyAfterCompleted(ctx context.Context, reg module.Registry) error {
	s.record("notify")
	if s.OnNotify != nil {
		return s.OnNotify(ctx, reg)
	}
	return nil
}

var _ module.Provider = (*StubProvider)(nil)
