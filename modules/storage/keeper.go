package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
)

// DefaultTTLSchedule is how often expired spans are removed.
const DefaultTTLSchedule = "@every 5m"

// TTLKeeper periodically deletes spans older than the record TTL.
type TTLKeeper struct {
	schedule cron.Schedule
	cleaner  Cleaner
	ttl      time.Duration
	now      func() time.Time
}

// NewTTLKeeper parses expr, a standard cron expression or descriptor such
// as "@every 5m".
func NewTTLKeeper(expr string, cleaner Cleaner, ttl time.Duration) (*TTLKeeper, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid ttl schedule %q: %w", expr, err)
	}
	return &TTLKeeper{schedule: schedule, cleaner: cleaner, ttl: ttl, now: time.Now}, nil
}

// RunOnce deletes everything older than the TTL.
func (k *TTLKeeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := k.now().Add(-k.ttl)
	return k.cleaner.DeleteBefore(ctx, cutoff)
}

// Start runs the keeper on its schedule until ctx ends.
func (k *TTLKeeper) Start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx).With("component", "ttl_keeper")

	c := cron.New()
	c.Schedule(k.schedule, cron.FuncJob(func() {
		removed, err := k.RunOnce(ctx)
		if err != nil {
			logger.Error("TTL cleanup failed.", "error", err)
			return
		}
		logger.Debug("TTL cleanup finished.", "removed", removed)
	}))
	c.Start()
	logger.Info("TTL keeper started.", "ttl", k.ttl)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Debug("TTL keeper stopped.")
	}()
}

// StartKeeper builds a keeper from core's record TTL and starts it. It is
// called by storage providers once the boot completed.
func StartKeeper(ctx context.Context, reg module.Reader, expr string, cleaner Cleaner) (*TTLKeeper, error) {
	cfg, err := module.Find[core.ConfigService](reg, core.Name)
	if err != nil {
		return nil, err
	}
	keeper, err := NewTTLKeeper(expr, cleaner, cfg.RecordDataTTL())
	if err != nil {
		return nil, err
	}
	keeper.Start(ctx)
	return keeper, nil
}
