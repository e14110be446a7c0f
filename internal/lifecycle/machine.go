package lifecycle

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidTransition matches every *TransitionError through errors.Is.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError reports a phase that cannot run from the current state.
type TransitionError struct {
	State  State
	Phase  Phase
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s: %s", e.Phase, e.State, e.Reason)
}

// Is reports whether target is ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Machine tracks one provider through the boot. It is written by the boot
// sequencer only, but may be read from any goroutine.
type Machine struct {
	state  atomic.Int32
	active atomic.Int32
	cause  atomic.Pointer[error]
}

// NewMachine returns a machine in the Unconfigured state.
func NewMachine() *Machine {
	return &Machine{}
}

// State atomically retrieves the current state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

// Active returns the phase currently running, if any.
func (m *Machine) Active() (Phase, bool) {
	p := Phase(m.active.Load())
	return p, p != 0
}

// Err returns the cause recorded by Fail, or nil.
func (m *Machine) Err() error {
	if p := m.cause.Load(); p != nil {
		return *p
	}
	return nil
}

// Begin marks phase p as running.
func (m *Machine) Begin(p Phase) error {
	if _, running := m.Active(); running {
		return &TransitionError{State: m.State(), Phase: p, Reason: "another phase is running"}
	}
	if s := m.State(); s != p.From() {
		return &TransitionError{State: s, Phase: p, Reason: fmt.Sprintf("requires state %s", p.From())}
	}
	m.active.Store(int32(p))
	return nil
}

// Finish completes the running phase p and advances the state.
func (m *Machine) Finish(p Phase) error {
	if active, _ := m.Active(); active != p {
		return &TransitionError{State: m.State(), Phase: p, Reason: "phase is not running"}
	}
	m.state.Store(int32(p.To()))
	m.active.Store(0)
	return nil
}

// Fail moves the machine into the terminal Failed state, recording cause.
func (m *Machine) Fail(cause error) error {
	s := m.State()
	if s.Terminal() {
		p, _ := m.Active()
		return &TransitionError{State: s, Phase: p, Reason: "state is terminal"}
	}
	m.cause.Store(&cause)
	m.state.Store(int32(Failed))
	m.active.Store(0)
	return nil
}
