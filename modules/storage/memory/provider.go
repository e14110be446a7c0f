// Package memory is the in-process "memory" provider of the storage module.
// Data does not survive a restart.
package memory

import (
	"context"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/storage"
)

// Options configure the memory provider.
type Options struct {
	MaxSpans    int    `hcl:"max_spans,optional" toml:"max_spans" yaml:"max_spans" validate:"min=1"`
	TTLSchedule string `hcl:"ttl_schedule,optional" toml:"ttl_schedule" yaml:"ttl_schedule" validate:"required"`
}

// Provider is the "memory" storage provider.
type Provider struct {
	module.Base
	module.Noop
	opts  Options
	store *Store
}

// New returns an unconfigured memory provider.
func New() module.Provider {
	return &Provider{
		Base: module.Base{ModuleName: storage.Name, ProviderName: "memory", Requires: []string{core.Name}},
		opts: Options{MaxSpans: 100_000, TTLSchedule: storage.DefaultTTLSchedule},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Provider) Prepare(_ context.Context, reg module.Registry) error {
	p.store = NewStore(p.opts.MaxSpans)
	return storage.Provide(reg, p.store)
}

func (p *Provider) NotifyAfterCompleted(ctx context.Context, reg module.Registry) error {
	_, err := storage.StartKeeper(ctx, reg, p.opts.TTLSchedule, p.store)
	return err
}
