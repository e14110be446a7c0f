package registry

import (
	"fmt"

	"github.com/vk/tracegrid/internal/lifecycle"
	"github.com/vk/tracegrid/internal/module"
)

// Scope is the module.Registry handed to one provider. It writes only into
// the provider's own slot, only while the provider's Prepare or Start phase
// is running, and reads only from the provider's own module and the modules
// it requires.
type Scope struct {
	registry *Registry
	module   string
	provider string
	requires map[string]struct{}
	machine  *lifecycle.Machine
}

// Scope binds an accessor to provider p, whose phases are tracked by m.
func (r *Registry) Scope(p module.Provider, m *lifecycle.Machine) *Scope {
	requires := make(map[string]struct{})
	for _, dep := range p.RequiredModules() {
		requires[dep] = struct{}{}
	}
	return &Scope{
		registry: r,
		module:   p.Module(),
		provider: p.Name(),
		requires: requires,
		machine:  m,
	}
}

// Register publishes impl in the provider's own module slot. Calling it
// outside the provider's Prepare or Start phase is a programming error and
// panics.
func (s *Scope) Register(id module.CapabilityID, impl any) error {
	phase, running := s.machine.Active()
	if !running || !phase.AllowsRegistration() {
		panic(fmt.Sprintf("registry: provider %q of module %q registered %s while in state %s; registration is only allowed during prepare or start",
			s.provider, s.module, id, s.machine.State()))
	}
	return s.registry.Register(s.module, s.provider, id, impl)
}

// Lookup resolves a capability from the provider's own module or one of the
// modules it requires.
func (s *Scope) Lookup(moduleName string, id module.CapabilityID) (any, error) {
	if moduleName != s.module {
		if _, ok := s.requires[moduleName]; !ok {
			return nil, &UndeclaredDependencyError{Module: s.module, Provider: s.provider, Target: moduleName}
		}
	}
	return s.registry.Lookup(moduleName, id)
}

var _ module.Registry = (*Scope)(nil)
