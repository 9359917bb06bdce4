package controller

// State is the lifecycle position of a Controller.
type State int

// Controller states. Terminated is absorbing.
const (
	StateIdle State = iota
	StateRegistering
	StateStarting
	StateReady
	StateFailed
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistering:
		return "registering"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// started reports whether Start has been entered.
func (s State) started() bool {
	return s == StateStarting || s == StateReady || s == StateFailed
}
