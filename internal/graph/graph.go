package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/dag"
	"github.com/vk/tracegrid/internal/module"
)

// Order is the ExecutionOrder: the selected providers, each one placed after
// every provider of a module it requires.
type Order []module.Provider

// Modules returns the module names in execution order.
func (o Order) Modules() []string {
	names := make([]string, len(o))
	for i, p := range o {
		names[i] = p.Module()
	}
	return names
}

// Index returns the position of the module's provider, or -1.
func (o Order) Index(moduleName string) int {
	for i, p := range o {
		if p.Module() == moduleName {
			return i
		}
	}
	return -1
}

// String renders the order as "core(default) -> storage(memory)".
func (o Order) String() string {
	parts := make([]string, len(o))
	for i, p := range o {
		parts[i] = fmt.Sprintf("%s(%s)", p.Module(), p.Name())
	}
	return strings.Join(parts, " -> ")
}

// Build validates the providers' declared dependencies and computes the
// execution order. providers must be in declaration order.
func Build(providers []module.Provider) (Order, error) {
	g := dag.New()
	byModule := make(map[string]module.Provider, len(providers))

	for _, p := range providers {
		name := p.Module()
		if prev, dup := byModule[name]; dup {
			return nil, &config.Error{
				Module: name,
				Err:    fmt.Errorf("more than one provider selected (%q and %q)", prev.Name(), p.Name()),
			}
		}
		byModule[name] = p
		g.AddNode(name)
	}

	for _, p := range providers {
		name := p.Module()
		for _, dep := range p.RequiredModules() {
			if dep == name {
				return nil, &CyclicDependencyError{Cycle: []string{name, name}}
			}
			if !g.HasNode(dep) {
				return nil, &UnresolvedDependencyError{Module: name, Provider: p.Name(), Missing: dep}
			}
			if err := g.AddEdge(dep, name); err != nil {
				return nil, fmt.Errorf("graph: linking %s to %s: %w", name, dep, err)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return nil, cyclicError(err)
	}
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, cyclicError(err)
	}

	order := make(Order, 0, len(sorted))
	for _, name := range sorted {
		order = append(order, byModule[name])
	}
	return order, nil
}

func cyclicError(err error) error {
	var cycleErr *dag.CycleError
	if errors.As(err, &cycleErr) {
		return &CyclicDependencyError{Cycle: cycleErr.Path}
	}
	return err
}
