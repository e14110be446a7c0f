package app

import (
	"context"
	"time"

	"github.com/vk/tracegrid/internal/boot"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/graph"
	"github.com/vk/tracegrid/internal/registry"
)

// Check resolves the execution order without running any phase.
func (a *App) Check() (graph.Order, error) {
	return boot.Order(a.units)
}

// Boot starts the health check server when enabled and runs the boot
// sequence on a fresh registry. Servers started by providers keep running
// until ctx ends.
func (a *App) Boot(ctx context.Context) (*boot.Sequencer, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Boot method started.")

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(ctx, a.config.HealthcheckPort); err != nil {
			return nil, err
		}
	}

	order, err := a.Check()
	if err != nil {
		return nil, err
	}

	seq := boot.NewSequencer(registry.New(), order)
	a.sequencer.Store(seq)

	started := time.Now()
	if err := seq.Run(ctx, boot.Options(a.units)); err != nil {
		return seq, err
	}
	a.logger.Info("🏁 Boot finished.", "duration", time.Since(started), "modules", len(order))
	return seq, nil
}

// Run boots the application and blocks until ctx ends. A failed boot
// cancels the servers and listeners opened by the providers that started.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if _, err := a.Boot(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Info("Shutting down.")
	return nil
}
