// Package testutil holds helpers shared by tests across packages: a
// thread-safe log buffer, a temporary config writer and a scriptable
// provider that journals its lifecycle calls.
package testutil
