package config

import (
	"errors"
	"fmt"
	"strings"
)

// DisabledSelector is the selector value that switches a module off.
const DisabledSelector = "-"

// Document is the whole configuration: one entry per module, in
// declaration order.
type Document struct {
	Modules []*ModuleConfig
}

// ModuleConfig is a module's section of the document.
type ModuleConfig struct {
	Name string
	// Selector names the chosen provider. Empty means "the only provider
	// block present".
	Selector  string
	Providers []*ProviderConfig
	// Source is where the module was declared, for error messages.
	Source string
}

// ProviderConfig is one provider block inside a module section.
type ProviderConfig struct {
	Name    string
	Options Options
}

// Module returns the named module section, or nil.
func (d *Document) Module(name string) *ModuleConfig {
	for _, m := range d.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Names returns the module names in declaration order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Modules))
	for _, m := range d.Modules {
		names = append(names, m.Name)
	}
	return names
}

// Validate checks the structural rules a loader cannot express: unique
// module names and unique provider blocks within each module.
func (d *Document) Validate() error {
	seen := make(map[string]*ModuleConfig, len(d.Modules))
	for _, m := range d.Modules {
		if m.Name == "" {
			return &Error{Err: errors.New("module section without a name")}
		}
		if prev, ok := seen[m.Name]; ok {
			return &Error{
				Module: m.Name,
				Err:    fmt.Errorf("declared twice (%s and %s)", sourceOrUnknown(prev.Source), sourceOrUnknown(m.Source)),
			}
		}
		seen[m.Name] = m

		providers := make(map[string]struct{}, len(m.Providers))
		for _, p := range m.Providers {
			if _, ok := providers[p.Name]; ok {
				return &Error{Module: m.Name, Provider: p.Name, Err: errors.New("provider block declared twice")}
			}
			providers[p.Name] = struct{}{}
		}
	}
	return nil
}

// Merge concatenates documents in order and validates the result.
func Merge(docs ...*Document) (*Document, error) {
	merged := &Document{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		merged.Modules = append(merged.Modules, d.Modules...)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Disabled reports whether the module was switched off with the "-"
// selector.
func (m *ModuleConfig) Disabled() bool {
	return m.Selector == DisabledSelector
}

// Provider returns the named provider block, or nil.
func (m *ModuleConfig) Provider(name string) *ProviderConfig {
	for _, p := range m.Providers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Selected resolves which provider this module boots with. A selector may
// name a provider that has no block, in which case its options are empty.
// Without a selector exactly one provider block must be present.
func (m *ModuleConfig) Selected() (*ProviderConfig, error) {
	if m.Disabled() {
		return nil, &Error{Module: m.Name, Err: errors.New("module is disabled")}
	}
	if m.Selector != "" {
		if p := m.Provider(m.Selector); p != nil {
			return p, nil
		}
		return &ProviderConfig{Name: m.Selector}, nil
	}

	switch len(m.Providers) {
	case 0:
		return nil, &Error{Module: m.Name, Err: errors.New("no provider configured and no selector set")}
	case 1:
		return m.Providers[0], nil
	default:
		names := make([]string, 0, len(m.Providers))
		for _, p := range m.Providers {
			names = append(names, p.Name)
		}
		return nil, &Error{
			Module: m.Name,
			Err:    fmt.Errorf("%d providers configured (%s) but no selector set", len(names), strings.Join(names, ", ")),
		}
	}
}

func sourceOrUnknown(s string) string {
	if s == "" {
		return "<unknown>"
	}
	return s
}
