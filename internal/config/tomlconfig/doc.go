// Package tomlconfig loads the configuration document from TOML files. Each
// top-level table is a module; its sub-tables are provider blocks and its
// optional "selector" key picks one:
//
//	[storage]
//	selector = "sqlite"
//
//	[storage.memory]
//	max_spans = 100000
//
//	[storage.sqlite]
//	dsn = "file:tracegrid.db"
package tomlconfig
