package module

import (
	"fmt"

	"github.com/sarchlab/korfield/core"
)

// ProposeMode asks the neighborhood to switch to a new operating mode. The
// ballot needs a supermajority.
func (m *Module) ProposeMode(mode uint32, now core.TimeUs) (core.BallotID, error) {
	return m.propose(core.ProposalModeChange, mode, now)
}

// ProposePowerLimit asks the neighborhood to agree on a power limit in
// milliwatts. The ballot needs a simple majority.
func (m *Module) ProposePowerLimit(
	powerMW uint32,
	now core.TimeUs,
) (core.BallotID, error) {
	return m.propose(core.ProposalPowerLimit, powerMW, now)
}

func (m *Module) propose(
	kind core.ProposalType,
	value uint32,
	now core.TimeUs,
) (core.BallotID, error) {
	threshold := core.SimpleMajority
	if kind == core.ProposalModeChange {
		threshold = core.Supermajority
	}

	m.consensusRounds++

	ballot, err := m.consensus.Propose(kind, value, threshold, now)
	if err != nil {
		return core.InvalidBallotID, fmt.Errorf(
			"module %s propose %s: %w", m.name, kind, err)
	}

	m.pendingBallots = append(m.pendingBallots, ballot)

	return ballot, nil
}

// ConsensusResult returns the current result of a ballot.
func (m *Module) ConsensusResult(ballot core.BallotID) core.VoteResult {
	return m.consensus.Result(ballot)
}

// ActiveBallots returns the number of ballots proposed by this module that
// have not completed.
func (m *Module) ActiveBallots() int {
	return len(m.pendingBallots)
}

// RequestVote is called by the consensus layer when another module asks for
// this module's vote. Without a VoteRequested observer the module abstains.
func (m *Module) RequestVote(req VoteRequest) core.VoteValue {
	if m.callbacks.VoteRequested == nil {
		return core.VoteAbstain
	}

	return m.callbacks.VoteRequested(m, req)
}
