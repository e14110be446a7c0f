package app

import (
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/vk/tracegrid/modules/exporter/console"
	"github.com/vk/tracegrid/modules/exporter/socketio"
	"github.com/vk/tracegrid/modules/exporter/zipkinhttp"
	"github.com/vk/tracegrid/modules/query"
	"github.com/vk/tracegrid/modules/receiver"
	"github.com/vk/tracegrid/modules/storage/memory"
	"github.com/vk/tracegrid/modules/storage/sqldb"
	"github.com/vk/tracegrid/modules/telemetry"
)

// DefaultCatalog is the definitive list of all providers that are compiled
// into the tracegrid binary.
func DefaultCatalog() *module.Catalog {
	return module.NewCatalog().MustRegister(
		core.New,
		telemetry.NewNone,
		telemetry.NewPrometheus,
		memory.New,
		sqldb.NewSQLite,
		sqldb.NewMySQL,
		sqldb.NewPostgres,
		exporter.NewNone,
		console.New,
		socketio.New,
		zipkinhttp.New,
		receiver.New,
		query.New,
	)
}
