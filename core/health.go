package core

// HealthState is the liveness classification of a neighbor.
type HealthState uint8

// All the health states.
const (
	HealthUnknown HealthState = iota
	HealthAlive
	HealthSuspect
	HealthDead
)

func (s HealthState) String() string {
	switch s {
	case HealthUnknown:
		return "Unknown"
	case HealthAlive:
		return "Alive"
	case HealthSuspect:
		return "Suspect"
	case HealthDead:
		return "Dead"
	default:
		return "Invalid"
	}
}
