package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/vk/tracegrid/internal/boot"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/config/hclconfig"
	"github.com/vk/tracegrid/internal/config/tomlconfig"
	"github.com/vk/tracegrid/internal/config/yamlconfig"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	document *config.Document
	units    []boot.Unit

	sequencer atomic.Pointer[boot.Sequencer]
}

// DefaultLoaders returns a loader for every supported file format.
func DefaultLoaders() []config.Loader {
	return []config.Loader{hclconfig.NewLoader(), tomlconfig.NewLoader(), yamlconfig.NewLoader()}
}

// NewApp is the constructor for the main application. It loads every
// configuration file under cfg.ConfigPath, merges them and instantiates the
// selected providers from catalog. A nil catalog means DefaultCatalog.
func NewApp(outW io.Writer, cfg *Config, catalog *module.Catalog, loaders ...config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if len(loaders) == 0 {
		loaders = DefaultLoaders()
	}

	docs := make([]*config.Document, 0, len(loaders))
	for _, l := range loaders {
		doc, err := l.Load(ctx, cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		docs = append(docs, doc)
	}
	doc, err := config.Merge(docs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(doc.Modules) == 0 {
		return nil, fmt.Errorf("no modules configured in %s", cfg.ConfigPath)
	}
	logger.Debug("Configuration loaded.", "modules", doc.Names())

	units, err := boot.Plan(catalog, doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("Providers selected.", "count", len(units))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		document: doc,
		units:    units,
	}, nil
}

// Document returns the merged configuration document.
func (a *App) Document() *config.Document {
	return a.document
}

// Sequencer returns the current boot, or nil before Boot was called.
func (a *App) Sequencer() *boot.Sequencer {
	return a.sequencer.Load()
}
