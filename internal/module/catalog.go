package module

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownModule is returned when no provider of a module is compiled in.
	ErrUnknownModule = errors.New("unknown module")
	// ErrUnknownProvider is returned when a module has no provider by that name.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Factory builds a fresh, unconfigured provider instance.
type Factory func() Provider

// Definition is a module slot and the providers that can satisfy it.
type Definition struct {
	name      string
	order     []string
	factories map[string]Factory
}

// Name returns the module name.
func (d *Definition) Name() string { return d.name }

// Providers returns the candidate provider names in registration order.
func (d *Definition) Providers() []string {
	return append([]string(nil), d.order...)
}

// New instantiates the named provider.
func (d *Definition) New(provider string) (Provider, error) {
	f, ok := d.factories[provider]
	if !ok {
		return nil, fmt.Errorf("%w %q for module %q (available: %s)",
			ErrUnknownProvider, provider, d.name, strings.Join(d.order, ", "))
	}
	return f(), nil
}

// Catalog is the closed set of providers compiled into the binary.
type Catalog struct {
	order []string
	defs  map[string]*Definition
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Definition)}
}

// Register adds a provider factory. The factory is invoked once to read
// the provider's identity. A second factory with the same module and
// provider name is rejected.
func (c *Catalog) Register(f Factory) error {
	sample := f()
	moduleName, providerName := sample.Module(), sample.Name()
	if moduleName == "" || providerName == "" {
		return fmt.Errorf("provider %T has an empty module or provider name", sample)
	}

	def, ok := c.defs[moduleName]
	if !ok {
		def = &Definition{name: moduleName, factories: make(map[string]Factory)}
		c.defs[moduleName] = def
		c.order = append(c.order, moduleName)
	}
	if _, dup := def.factories[providerName]; dup {
		return fmt.Errorf("provider %q for module %q registered twice", providerName, moduleName)
	}
	def.factories[providerName] = f
	def.order = append(def.order, providerName)
	return nil
}

// MustRegister registers every factory and panics on the first conflict.
// Duplicates are a build mistake, not a runtime condition.
func (c *Catalog) MustRegister(factories ...Factory) *Catalog {
	for _, f := range factories {
		if err := c.Register(f); err != nil {
			panic(err)
		}
	}
	return c
}

// Definition returns the module slot by name.
func (c *Catalog) Definition(name string) (*Definition, error) {
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownModule, name, strings.Join(c.order, ", "))
	}
	return def, nil
}

// Modules returns the module names in registration order.
func (c *Catalog) Modules() []string {
	return append([]string(nil), c.order...)
}
