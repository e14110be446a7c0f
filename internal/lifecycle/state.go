package lifecycle

// State is a provider's position in the boot lifecycle.
type State int32

const (
	// Unconfigured is the state of a freshly instantiated provider.
	Unconfigured State = iota
	// Configured means the typed configuration has been materialized.
	Configured
	// Prepared means the provider has registered its services.
	Prepared
	// Started means active initialization has finished.
	Started
	// Completed means the full-graph hook has run. The provider is live.
	Completed
	// Failed means one of the provider's phases returned an error.
	Failed
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Prepared:
		return "prepared"
	case Started:
		return "started"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Phase is one step of the boot sequence.
type Phase int32

const (
	// Configure binds raw options into typed configuration.
	Configure Phase = iota + 1
	// Prepare registers services, in execution order.
	Prepare
	// Start performs active initialization, in execution order.
	Start
	// NotifyAfterCompleted runs once every provider has started.
	NotifyAfterCompleted
)

// Phases lists every phase in the order the boot runs them.
var Phases = []Phase{Configure, Prepare, Start, NotifyAfterCompleted}

func (p Phase) String() string {
	switch p {
	case Configure:
		return "configure"
	case Prepare:
		return "prepare"
	case Start:
		return "start"
	case NotifyAfterCompleted:
		return "notify-after-completed"
	default:
		return "none"
	}
}

// From is the state a provider must be in for the phase to begin.
func (p Phase) From() State {
	switch p {
	case Configure:
		return Unconfigured
	case Prepare:
		return Configured
	case Start:
		return Prepared
	case NotifyAfterCompleted:
		return Started
	default:
		return Failed
	}
}

// To is the state a provider reaches when the phase succeeds.
func (p Phase) To() State {
	switch p {
	case Configure:
		return Configured
	case Prepare:
		return Prepared
	case Start:
		return Started
	case NotifyAfterCompleted:
		return Completed
	default:
		return Failed
	}
}

// AllowsRegistration reports whether services may be published while the
// phase is running.
func (p Phase) AllowsRegistration() bool {
	return p == Prepare || p == Start
}
