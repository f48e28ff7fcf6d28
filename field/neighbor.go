package field

import "github.com/sarchlab/korfield/core"

// A Neighbor is a topological peer of a module, as reported by the topology
// layer.
type Neighbor struct {
	ID               core.ModuleID
	Health           core.HealthState
	LastSeen         core.TimeUs
	LastField        Field
	LogicalDistance  int32
	MissedHeartbeats uint8
}

// NewNeighbor creates a neighbor entry with unknown health.
func NewNeighbor(id core.ModuleID) Neighbor {
	return Neighbor{ID: id, Health: core.HealthUnknown}
}

// IsHealthy reports whether the neighbor is Alive or Suspect.
func (n Neighbor) IsHealthy() bool {
	return n.Health == core.HealthAlive || n.Health == core.HealthSuspect
}
