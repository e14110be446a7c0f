package core

import (
	"context"
	"time"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
)

// Name is the module name.
const Name = "core"

// Options are the core provider's options.
type Options struct {
	RecordDataTTLDays     int    `hcl:"record_data_ttl_days,optional" toml:"record_data_ttl_days" yaml:"record_data_ttl_days" validate:"min=2"`
	ServiceNameMaxLength  int    `hcl:"service_name_max_length,optional" toml:"service_name_max_length" yaml:"service_name_max_length" validate:"min=0"`
	EndpointNameMaxLength int    `hcl:"endpoint_name_max_length,optional" toml:"endpoint_name_max_length" yaml:"endpoint_name_max_length" validate:"min=0"`
	SearchableTagKeys     string `hcl:"searchable_tag_keys,optional" toml:"searchable_tag_keys" yaml:"searchable_tag_keys"`
	SampleRate            int    `hcl:"sample_rate,optional" toml:"sample_rate" yaml:"sample_rate" validate:"min=0,max=10000"`
}

// DefaultOptions returns the options used for anything left unset.
func DefaultOptions() Options {
	return Options{
		RecordDataTTLDays:     3,
		ServiceNameMaxLength:  70,
		EndpointNameMaxLength: 150,
		SearchableTagKeys:     "http.method,http.status_code,error",
		SampleRate:            10000,
	}
}

// Provider is the "default" core provider.
type Provider struct {
	module.Base
	opts   Options
	status *serverStatus
}

// New returns an unconfigured core provider.
func New() module.Provider {
	return &Provider{
		Base:   module.Base{ModuleName: Name, ProviderName: "default"},
		opts:   DefaultOptions(),
		status: &serverStatus{},
	}
}

func (p *Provider) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Provider) Prepare(ctx context.Context, reg module.Registry) error {
	if err := module.Provide[ConfigService](reg, newConfigService(p.opts)); err != nil {
		return err
	}
	naming := namingControl{serviceMax: p.opts.ServiceNameMaxLength, endpointMax: p.opts.EndpointNameMaxLength}
	if err := module.Provide[NamingControl](reg, naming); err != nil {
		return err
	}
	return module.Provide[ServerStatus](reg, p.status)
}

func (p *Provider) Start(ctx context.Context, reg module.Registry) error {
	now := time.Now()
	p.status.started.Store(&now)
	return nil
}

func (p *Provider) NotifyAfterCompleted(ctx context.Context, reg module.Registry) error {
	now := time.Now()
	p.status.booted.Store(&now)
	ctxlog.FromContext(ctx).Info("Server booted.",
		"record_ttl", newConfigService(p.opts).RecordDataTTL(),
		"boot_duration", now.Sub(p.status.StartedAt()))
	return nil
}
