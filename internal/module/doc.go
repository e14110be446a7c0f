// Package module defines the contract every pluggable provider implements,
// the registry accessor handed to providers during boot, capability
// identifiers, and the Catalog of providers compiled into the binary.
package module
