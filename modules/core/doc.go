// Package core is the "core" module. It has no dependencies and publishes
// the services every other module reads: the server configuration, name
// normalization and the boot status. It also owns the span model shared by
// the receiver, storage and query modules.
package core
