package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvedDependency matches *UnresolvedDependencyError.
	ErrUnresolvedDependency = errors.New("unresolved module dependency")
	// ErrCyclicDependency matches *CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic module dependency")
)

// UnresolvedDependencyError reports a required module that is not part of
// the boot.
type UnresolvedDependencyError struct {
	Module   string
	Provider string
	Missing  string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("module %q (provider %q) requires module %q, which is not configured",
		e.Module, e.Provider, e.Missing)
}

// Is reports whether target is ErrUnresolvedDependency.
func (e *UnresolvedDependencyError) Is(target error) bool { return target == ErrUnresolvedDependency }

// CyclicDependencyError names a cycle in the requires relation. Cycle starts
// and ends with the same module; each module requires the next one.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic module dependency: " + strings.Join(e.Cycle, " -> ")
}

// Is reports whether target is ErrCyclicDependency.
func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }
