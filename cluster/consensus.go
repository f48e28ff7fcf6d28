package cluster

import (
	"fmt"
	"sort"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

// A Ballot is a proposal recorded by a LedgerConsensus.
type Ballot struct {
	ID        core.BallotID
	Kind      core.ProposalType
	Value     uint32
	Threshold fixed.Fixed
	Opened    core.TimeUs
	Closed    core.TimeUs
	Result    core.VoteResult
}

// LedgerConsensus records proposals and expires them. It collects no votes,
// so every ballot ends in VoteTimeout.
type LedgerConsensus struct {
	timeout   core.TimeUs
	retention core.TimeUs
	nextID    core.BallotID
	ballots   map[core.BallotID]*Ballot
}

// NewLedgerConsensus creates a ledger whose ballots time out after timeout.
// Closed ballots are forgotten ten timeouts after they close.
func NewLedgerConsensus(timeout core.TimeUs) *LedgerConsensus {
	return &LedgerConsensus{
		timeout:   timeout,
		retention: 10 * timeout,
		ballots:   make(map[core.BallotID]*Ballot),
	}
}

// Propose opens a ballot. At most core.MaxBallots can be open at once.
func (c *LedgerConsensus) Propose(
	kind core.ProposalType,
	value uint32,
	threshold fixed.Fixed,
	now core.TimeUs,
) (core.BallotID, error) {
	if threshold <= fixed.Zero || threshold > fixed.One {
		return core.InvalidBallotID, fmt.Errorf(
			"threshold %s: %w", threshold, core.ErrInvalidArg)
	}

	if c.Open() >= core.MaxBallots {
		return core.InvalidBallotID, fmt.Errorf(
			"%d ballots open: %w", core.MaxBallots, core.ErrNoMemory)
	}

	id := c.allocateID()
	c.ballots[id] = &Ballot{
		ID:        id,
		Kind:      kind,
		Value:     value,
		Threshold: threshold,
		Opened:    now,
		Result:    core.VotePending,
	}

	return id, nil
}

func (c *LedgerConsensus) allocateID() core.BallotID {
	for {
		c.nextID++
		if c.nextID == core.InvalidBallotID {
			continue
		}

		if _, used := c.ballots[c.nextID]; !used {
			return c.nextID
		}
	}
}

// Tick times out expired ballots and forgets old closed ones.
func (c *LedgerConsensus) Tick(now core.TimeUs) {
	for id, b := range c.ballots {
		age := core.SaturatingSub(now, b.Opened)

		if b.Result == core.VotePending {
			if age >= c.timeout {
				b.Result = core.VoteTimeout
				b.Closed = now
			}

			continue
		}

		if core.SaturatingSub(now, b.Closed) > c.retention {
			delete(c.ballots, id)
		}
	}
}

// Result returns the result of a ballot. Unknown ballots are Cancelled.
func (c *LedgerConsensus) Result(id core.BallotID) core.VoteResult {
	b, ok := c.ballots[id]
	if !ok {
		return core.VoteCancelled
	}

	return b.Result
}

// Open returns the number of pending ballots.
func (c *LedgerConsensus) Open() int {
	open := 0

	for _, b := range c.ballots {
		if b.Result == core.VotePending {
			open++
		}
	}

	return open
}

// Ballots returns a copy of every remembered ballot ordered by id.
func (c *LedgerConsensus) Ballots() []Ballot {
	ballots := make([]Ballot, 0, len(c.ballots))
	for _, b := range c.ballots {
		ballots = append(ballots, *b)
	}

	sort.Slice(ballots, func(i, j int) bool {
		return ballots[i].ID < ballots[j].ID
	})

	return ballots
}
