package boot

import (
	"context"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/graph"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/internal/registry"
)

// Unit is one selected provider and its raw options.
type Unit struct {
	Provider module.Provider
	Options  config.Options
}

// Plan instantiates the provider each configured module selects, in
// declaration order. Disabled modules are skipped.
func Plan(catalog *module.Catalog, doc *config.Document) ([]Unit, error) {
	units := make([]Unit, 0, len(doc.Modules))
	for _, mc := range doc.Modules {
		if mc.Disabled() {
			continue
		}
		selected, err := mc.Selected()
		if err != nil {
			return nil, err
		}
		def, err := catalog.Definition(mc.Name)
		if err != nil {
			return nil, &config.Error{Module: mc.Name, Err: err}
		}
		p, err := def.New(selected.Name)
		if err != nil {
			return nil, &config.Error{Module: mc.Name, Provider: selected.Name, Err: err}
		}
		units = append(units, Unit{Provider: p, Options: selected.Options})
	}
	return units, nil
}

// Order builds the execution order of units without running anything.
func Order(units []Unit) (graph.Order, error) {
	providers := make([]module.Provider, len(units))
	for i, u := range units {
		providers[i] = u.Provider
	}
	return graph.Build(providers)
}

// Options collects the units' raw options keyed by module name.
func Options(units []Unit) map[string]config.Options {
	opts := make(map[string]config.Options, len(units))
	for _, u := range units {
		if u.Options != nil {
			opts[u.Provider.Module()] = u.Options
		}
	}
	return opts
}

// Boot orders units, creates a fresh registry and runs the whole sequence.
// A graph error is returned as is and no phase runs. After a phase failure
// the returned sequencer still reports every provider's state.
func Boot(ctx context.Context, units []Unit) (*Sequencer, error) {
	order, err := Order(units)
	if err != nil {
		return nil, err
	}
	seq := NewSequencer(registry.New(), order)
	if err := seq.Run(ctx, Options(units)); err != nil {
		return seq, err
	}
	return seq, nil
}
