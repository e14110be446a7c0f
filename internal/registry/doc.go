// Package registry implements the service registry: one slot per module,
// each mapping a capability identifier to a single published instance.
//
// Writes happen only while the boot sequencer runs a provider's Prepare or
// Start phase, through a Scope bound to that provider. Reads never take a
// lock: every slot publishes an immutable map through an atomic pointer and
// replaces it wholesale on each registration.
package registry
