package module

import (
	"context"

	"github.com/vk/tracegrid/internal/config"
)

// Provider is one concrete implementation of a module. Exactly one provider
// per module is selected by configuration and driven through the boot
// phases: MaterializeConfig, Prepare, Start, then NotifyAfterCompleted.
type Provider interface {
	// Name identifies the provider within its module.
	Name() string
	// Module is the logical module this provider satisfies.
	Module() string
	// RequiredModules lists the modules whose services this provider reads.
	// The list is static and decides the boot order.
	RequiredModules() []string

	// MaterializeConfig binds the raw options into the provider's own typed
	// configuration. raw is nil when the configuration carries no options.
	MaterializeConfig(raw config.Options) error

	// Prepare registers the module's services. Services of required
	// modules registered during their own Prepare are visible; nothing has
	// been started yet.
	Prepare(ctx context.Context, reg Registry) error
	// Start performs active initialization such as binding listeners.
	Start(ctx context.Context, reg Registry) error
	// NotifyAfterCompleted runs once every provider has started.
	NotifyAfterCompleted(ctx context.Context, reg Registry) error
}

// Reader resolves services published into a module's slot.
type Reader interface {
	Lookup(module string, id CapabilityID) (any, error)
}

// Registry is the accessor a provider receives in its lifecycle hooks.
// Register writes into the provider's own module slot. Lookup reads the
// provider's own module or one of its required modules.
type Registry interface {
	Reader
	Register(id CapabilityID, impl any) error
}

// Base carries the identity half of Provider so implementations only write
// their lifecycle hooks.
type Base struct {
	ProviderName string
	ModuleName   string
	Requires     []string
}

func (b Base) Name() string   { return b.ProviderName }
func (b Base) Module() string { return b.ModuleName }

// RequiredModules returns a copy so callers cannot alter the declaration.
func (b Base) RequiredModules() []string {
	return append([]string(nil), b.Requires...)
}

// Noop supplies empty lifecycle hooks for embedding.
type Noop struct{}

func (Noop) MaterializeConfig(config.Options) error               { return nil }
func (Noop) Prepare(context.Context, Registry) error              { return nil }
func (Noop) Start(context.Context, Registry) error                { return nil }
func (Noop) NotifyAfterCompleted(context.Context, Registry) error { return nil }
