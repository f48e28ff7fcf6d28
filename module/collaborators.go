package module

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
)

// Topology maintains the bounded neighbor set of one module.
type Topology interface {
	// Neighbors returns the current neighbors, at most core.KNeighbors,
	// closest first.
	Neighbors() []field.Neighbor

	// NeighborCount returns the number of live neighbors.
	NeighborCount() int

	// Tick runs topology maintenance and reports whether the neighbor set
	// changed.
	Tick(now core.TimeUs) bool

	// OnNeighborLost drops a neighbor.
	OnNeighborLost(id core.ModuleID) error
}

// Heartbeat tracks neighbor liveness.
type Heartbeat interface {
	// Tick advances liveness tracking and returns the number of health
	// transitions in this step.
	Tick(now core.TimeUs) int

	// Health returns the current health of a module.
	Health(id core.ModuleID) core.HealthState
}

// Consensus runs ballots among neighbors.
type Consensus interface {
	// Tick advances round and timeout bookkeeping.
	Tick(now core.TimeUs)

	// Propose opens a ballot.
	Propose(
		kind core.ProposalType,
		value uint32,
		threshold fixed.Fixed,
		now core.TimeUs,
	) (core.BallotID, error)

	// Result returns the current result of a ballot.
	Result(id core.BallotID) core.VoteResult
}
