// Package sqldb holds the relational storage providers "sqlite", "mysql"
// and "postgres". They share one gorm-backed DAO and differ only in the
// dialector that opens the connection.
package sqldb

import (
	"context"
	"fmt"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/storage"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configure a relational provider.
type Options struct {
	DSN          string `hcl:"dsn,optional" toml:"dsn" yaml:"dsn" validate:"required"`
	MaxOpenConns int    `hcl:"max_open_conns,optional" toml:"max_open_conns" yaml:"max_open_conns" validate:"min=0"`
	TTLSchedule  string `hcl:"ttl_schedule,optional" toml:"ttl_schedule" yaml:"ttl_schedule" validate:"required"`
}

// Provider is a gorm-backed storage provider.
type Provider struct {
	module.Base
	opts Options
	open func(dsn string) gorm.Dialector
	dao  *DAO
}

func newProvider(name string, open func(string) gorm.Dialector) *Provider {
	return &Provider{
		Base: module.Base{ModuleName: storage.Name, ProviderName: name, Requires: []string{core.Name}},
		opts: Options{TTLSchedule: storage.DefaultTTLSchedule},
		open: open,
		dao:  &DAO{},
	}
}

// NewSQLite returns the "sqlite" provider.
func NewSQLite() module.Provider { return newProvider("sqlite", sqlite.Open) }

// NewMySQL returns the "mysql" provider.
func NewMySQL() module.Provider { return newProvider("mysql", mysql.Open) }

// NewPostgres returns the "postgres" provider.
func NewPostgres() module.Provider { return newProvider("postgres", postgres.Open) }

func (p *Provider) MaterializeConfig(raw config.Options) error {
	return config.Bind(raw, &p.opts)
}

func (p *Provider) Prepare(_ context.Context, reg module.Registry) error {
	return storage.Provide(reg, p.dao)
}

func (p *Provider) Start(ctx context.Context, _ module.Registry) error {
	log := ctxlog.FromContext(ctx)

	db, err := gorm.Open(p.open(p.opts.DSN), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", p.Name(), err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access %s connection pool: %w", p.Name(), err)
	}
	if p.opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(p.opts.MaxOpenConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to reach %s database: %w", p.Name(), err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&spanRecord{}); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to migrate %s schema: %w", p.Name(), err)
	}

	p.dao.db.Store(db)
	log.Info("Database connected.", "driver", p.Name())

	go func() {
		<-ctx.Done()
		if err := sqlDB.Close(); err != nil {
			log.Error("Failed to close database.", "error", err)
		}
	}()
	return nil
}

func (p *Provider) NotifyAfterCompleted(ctx context.Context, reg module.Registry) error {
	_, err := storage.StartKeeper(ctx, reg, p.opts.TTLSchedule, p.dao)
	return err
}
