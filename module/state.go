package module

// State is the lifecycle state of a module.
type State int

// All the lifecycle states.
const (
	StateInit State = iota
	StateDiscovering
	StateActive
	StateDegraded
	StateIsolated
	StateReforming
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateDiscovering:
		return "Discovering"
	case StateActive:
		return "Active"
	case StateDegraded:
		return "Degraded"
	case StateIsolated:
		return "Isolated"
	case StateReforming:
		return "Reforming"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Invalid"
	}
}
