package module

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

// Callbacks are optional observers invoked synchronously by the goroutine
// driving the module. A nil entry is skipped.
type Callbacks struct {
	FieldChanged      func(m *Module, f field.Field)
	NeighborLost      func(m *Module, id core.ModuleID)
	NeighborFound     func(m *Module, id core.ModuleID)
	VoteRequested     func(m *Module, req VoteRequest) core.VoteValue
	ConsensusComplete func(m *Module, ballot core.BallotID, result core.VoteResult)
	StateChanged      func(m *Module, prev State)
}

// VoteRequest describes a ballot another module asks this module to vote on.
type VoteRequest struct {
	Ballot   core.BallotID
	Proposer core.ModuleID
	Kind     core.ProposalType
	Value    uint32
}
