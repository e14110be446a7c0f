// Package graph builds the module graph: it takes the providers selected for
// one boot and computes the ExecutionOrder the boot sequencer drives them
// through.
//
// # Rules
//
//   - Every module appears at most once; two providers for the same module is
//     a configuration error.
//   - Every module named in RequiredModules must be part of the boot,
//     otherwise Build fails with *UnresolvedDependencyError.
//   - The "requires" relation must be acyclic, otherwise Build fails with
//     *CyclicDependencyError naming the cycle. A module requiring itself is
//     the shortest possible cycle.
//
// # Ordering
//
// The order is a topological sort of the modules: every provider comes after
// the providers of all modules it requires. Providers that become eligible at
// the same time keep the order they were passed to Build in, which is the
// configuration's declaration order. Identical input therefore always gives
// an identical order.
//
// Build is a pure function of its input and may be called concurrently.
package graph
