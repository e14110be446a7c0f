package config

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid matches every *Error through errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// Error is a configuration problem, carrying as much location context as
// is known where it was raised. The boot sequencer fills in Module and
// Provider when a provider's own Bind call leaves them empty.
type Error struct {
	Module   string
	Provider string
	Option   string
	Err      error
}

func (e *Error) Error() string {
	var ctx []string
	if e.Module != "" {
		ctx = append(ctx, "module "+strconv.Quote(e.Module))
	}
	if e.Provider != "" {
		ctx = append(ctx, "provider "+strconv.Quote(e.Provider))
	}
	if e.Option != "" {
		ctx = append(ctx, "option "+strconv.Quote(e.Option))
	}

	msg := "config error"
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool { return target == ErrInvalid }
