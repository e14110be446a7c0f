package boot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/graph"
	"github.com/vk/tracegrid/internal/lifecycle"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/internal/registry"
)

// ErrAlreadyRan is returned by a second call to Run.
var ErrAlreadyRan = errors.New("boot: sequencer already ran")

// hook is one phase's callback for a single provider.
type hook func(ctx context.Context, p module.Provider, reg module.Registry) error

// Sequencer runs one boot. It is single use: build a new one, with a new
// registry, for every boot.
type Sequencer struct {
	registry  *registry.Registry
	order     graph.Order
	machines  map[string]*lifecycle.Machine
	scopes    map[string]*registry.Scope
	ran       atomic.Bool
	completed atomic.Bool
}

// NewSequencer prepares a boot of order against reg. Every module's slot is
// declared up front so lookups can tell an unpublished capability from a
// module that is not part of the boot.
func NewSequencer(reg *registry.Registry, order graph.Order) *Sequencer {
	s := &Sequencer{
		registry: reg,
		order:    order,
		machines: make(map[string]*lifecycle.Machine, len(order)),
		scopes:   make(map[string]*registry.Scope, len(order)),
	}
	for _, p := range order {
		reg.Declare(p.Module())
		m := lifecycle.NewMachine()
		s.machines[p.Module()] = m
		s.scopes[p.Module()] = reg.Scope(p, m)
	}
	return s
}

// Run executes the four phases. options holds each module's raw provider
// options, keyed by module name; a missing entry means no options. On
// success the registry is sealed.
func (s *Sequencer) Run(ctx context.Context, options map[string]config.Options) error {
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRan
	}

	logger := ctxlog.FromContext(ctx)
	started := time.Now()
	logger.Info("🚀 Boot sequence starting.", "providers", len(s.order), "order", s.order.String())

	phases := []struct {
		phase lifecycle.Phase
		run   hook
	}{
		{lifecycle.Configure, func(_ context.Context, p module.Provider, _ module.Registry) error {
			return withProviderContext(p.MaterializeConfig(options[p.Module()]), p)
		}},
		{lifecycle.Prepare, func(ctx context.Context, p module.Provider, reg module.Registry) error {
			return p.Prepare(ctx, reg)
		}},
		{lifecycle.Start, func(ctx context.Context, p module.Provider, reg module.Registry) error {
			return p.Start(ctx, reg)
		}},
		{lifecycle.NotifyAfterCompleted, func(ctx context.Context, p module.Provider, reg module.Registry) error {
			return p.NotifyAfterCompleted(ctx, reg)
		}},
	}

	for _, ph := range phases {
		if err := s.runPhase(ctx, ph.phase, ph.run); err != nil {
			logger.Error("Boot sequence aborted.", "error", err, "duration", time.Since(started))
			return err
		}
	}

	s.registry.Seal()
	s.completed.Store(true)
	logger.Info("Boot sequence completed.", "duration", time.Since(started))
	return nil
}

// runPhase runs one phase for every provider in execution order and stops
// at the first failure.
func (s *Sequencer) runPhase(ctx context.Context, phase lifecycle.Phase, run hook) error {
	logger := ctxlog.FromContext(ctx)
	phaseStarted := time.Now()
	logger.Debug("Phase starting.", "phase", phase.String())

	for _, p := range s.order {
		m := s.machines[p.Module()]
		if err := m.Begin(phase); err != nil {
			return &Error{Phase: phase, Module: p.Module(), Provider: p.Name(), Err: err}
		}

		pctx := ctxlog.WithProvider(ctx, p.Module(), p.Name())
		providerStarted := time.Now()
		if err := s.invoke(pctx, m, p, run); err != nil {
			_ = m.Fail(err)
			ctxlog.FromContext(pctx).Error("Provider failed.", "phase", phase.String(), "error", err)
			return &Error{Phase: phase, Module: p.Module(), Provider: p.Name(), Err: err}
		}
		if err := m.Finish(phase); err != nil {
			return &Error{Phase: phase, Module: p.Module(), Provider: p.Name(), Err: err}
		}
		ctxlog.FromContext(pctx).Debug("Provider phase done.", "phase", phase.String(), "duration", time.Since(providerStarted))
	}

	logger.Debug("Phase finished.", "phase", phase.String(), "duration", time.Since(phaseStarted))
	return nil
}

// invoke runs one hook. A panicking hook fails its machine before the panic
// continues up the stack.
func (s *Sequencer) invoke(ctx context.Context, m *lifecycle.Machine, p module.Provider, run hook) error {
	defer func() {
		if r := recover(); r != nil {
			_ = m.Fail(fmt.Errorf("panic: %v", r))
			ctxlog.FromContext(ctx).Error("Provider panicked.", "panic", r)
			panic(r)
		}
	}()
	return run(ctx, p, s.scopes[p.Module()])
}

// Completed reports whether Run finished without error.
func (s *Sequencer) Completed() bool {
	return s.completed.Load()
}

// Order returns the execution order the sequencer drives.
func (s *Sequencer) Order() graph.Order {
	return s.order
}

// Registry returns the registry the boot publishes into.
func (s *Sequencer) Registry() *registry.Registry {
	return s.registry
}

// State returns the lifecycle state of the module's provider.
func (s *Sequencer) State(moduleName string) (lifecycle.State, bool) {
	m, ok := s.machines[moduleName]
	if !ok {
		return lifecycle.Unconfigured, false
	}
	return m.State(), true
}

// ProviderStatus is a point-in-time view of one provider.
type ProviderStatus struct {
	Module   string
	Provider string
	State    lifecycle.State
	Err      error
}

// Status lists every provider's state in execution order. It is safe to
// call while Run is in progress.
func (s *Sequencer) Status() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(s.order))
	for _, p := range s.order {
		m := s.machines[p.Module()]
		out = append(out, ProviderStatus{
			Module:   p.Module(),
			Provider: p.Name(),
			State:    m.State(),
			Err:      m.Err(),
		})
	}
	return out
}

// withProviderContext fills in the module and provider of a *config.Error
// raised by a provider's own Bind call.
func withProviderContext(err error, p module.Provider) error {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		if cfgErr.Module == "" {
			cfgErr.Module = p.Module()
		}
		if cfgErr.Provider == "" {
			cfgErr.Provider = p.Name()
		}
	}
	return err
}
