package registry

import (
	"errors"
	"fmt"

	"github.com/vk/tracegrid/internal/module"
)

var (
	// ErrDuplicateCapability matches *DuplicateCapabilityError.
	ErrDuplicateCapability = errors.New("duplicate capability")
	// ErrCapabilityNotFound matches *CapabilityNotFoundError.
	ErrCapabilityNotFound = errors.New("capability not found")
	// ErrUndeclaredDependency matches *UndeclaredDependencyError.
	ErrUndeclaredDependency = errors.New("undeclared module dependency")
	// ErrIncompatibleService matches *IncompatibleServiceError.
	ErrIncompatibleService = errors.New("service does not satisfy capability")
)

// DuplicateCapabilityError reports a second registration of a capability
// within one module.
type DuplicateCapabilityError struct {
	Module     string
	Capability module.CapabilityID
	// First and Second are the providers that registered it.
	First  string
	Second string
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("module %q: capability %s registered by provider %q is already provided by %q",
		e.Module, e.Capability, e.Second, e.First)
}

// Is reports whether target is ErrDuplicateCapability.
func (e *DuplicateCapabilityError) Is(target error) bool { return target == ErrDuplicateCapability }

// CapabilityNotFoundError reports a lookup of a capability that has not
// been published, either because the module never registers it or because
// it registers it in a later phase.
type CapabilityNotFoundError struct {
	Module        string
	Capability    module.CapabilityID
	UnknownModule bool
}

func (e *CapabilityNotFoundError) Error() string {
	if e.UnknownModule {
		return fmt.Sprintf("capability %s not found: module %q is not part of this boot", e.Capability, e.Module)
	}
	return fmt.Sprintf("capability %s not found in module %q", e.Capability, e.Module)
}

// Is reports whether target is ErrCapabilityNotFound.
func (e *CapabilityNotFoundError) Is(target error) bool { return target == ErrCapabilityNotFound }

// UndeclaredDependencyError reports a lookup into a module the caller did
// not list in its required modules.
type UndeclaredDependencyError struct {
	Module   string
	Provider string
	Target   string
}

func (e *UndeclaredDependencyError) Error() string {
	return fmt.Sprintf("provider %q of module %q looked up module %q, which it does not require",
		e.Provider, e.Module, e.Target)
}

// Is reports whether target is ErrUndeclaredDependency.
func (e *UndeclaredDependencyError) Is(target error) bool { return target == ErrUndeclaredDependency }

// IncompatibleServiceError reports an instance that cannot be published
// under the capability it was registered for.
type IncompatibleServiceError struct {
	Module     string
	Capability module.CapabilityID
	Impl       string
}

func (e *IncompatibleServiceError) Error() string {
	return fmt.Sprintf("module %q: %s cannot be registered as %s", e.Module, e.Impl, e.Capability)
}

// Is reports whether target is ErrIncompatibleService.
func (e *IncompatibleServiceError) Is(target error) bool { return target == ErrIncompatibleService }
