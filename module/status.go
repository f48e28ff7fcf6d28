package module

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
)

// Status is a snapshot of a module for reporting.
type Status struct {
	ID              core.ModuleID
	Name            string
	State           State
	NeighborCount   int
	LoadGradient    fixed.Fixed
	ThermalGradient fixed.Fixed
	ActiveBallots   int
	TicksTotal      uint32
	FieldUpdates    uint32
	TopologyChanges uint32
	ConsensusRounds uint32
	LastTick        core.TimeUs
}

// Status returns a snapshot of the module.
func (m *Module) Status() Status {
	return Status{
		ID:              m.id,
		Name:            m.name,
		State:           m.state,
		NeighborCount:   m.topology.NeighborCount(),
		LoadGradient:    m.gradients[field.Load],
		ThermalGradient: m.gradients[field.Thermal],
		ActiveBallots:   len(m.pendingBallots),
		TicksTotal:      m.ticksTotal,
		FieldUpdates:    m.fieldUpdates,
		TopologyChanges: m.topologyChanges,
		ConsensusRounds: m.consensusRounds,
		LastTick:        m.lastTick,
	}
}
