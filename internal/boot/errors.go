package boot

import (
	"errors"
	"fmt"

	"github.com/vk/tracegrid/internal/lifecycle"
)

// ErrBoot matches every *Error through errors.Is.
var ErrBoot = errors.New("boot failed")

// Error is a boot failure: the phase and provider it happened in, and the
// underlying cause.
type Error struct {
	Phase    lifecycle.Phase
	Module   string
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("boot failed during %s of module %q (provider %q): %v",
		e.Phase, e.Module, e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrBoot.
func (e *Error) Is(target error) bool { return target == ErrBoot }
