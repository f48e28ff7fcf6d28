package cluster

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

var _ = Describe("LedgerConsensus", func() {
	var ledger *LedgerConsensus

	BeforeEach(func() {
		ledger = NewLedgerConsensus(core.DefaultVoteTimeout)
	})

	It("should allocate ballot ids from one", func() {
		a, err := ledger.Propose(core.ProposalModeChange, 1, core.Supermajority, 0)
		Expect(err).NotTo(HaveOccurred())
		b, err := ledger.Propose(core.ProposalPowerLimit, 500, core.SimpleMajority, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(a).To(Equal(core.BallotID(1)))
		Expect(b).To(Equal(core.BallotID(2)))
		Expect(ledger.Result(a)).To(Equal(core.VotePending))
		Expect(ledger.Open()).To(Equal(2))
	})

	It("should bound open ballots", func() {
		for i := 0; i < core.MaxBallots; i++ {
			_, err := ledger.Propose(core.ProposalCustom, 0, core.Unanimous, 0)
			Expect(err).NotTo(HaveOccurred())
		}

		_, err := ledger.Propose(core.ProposalCustom, 0, core.Unanimous, 0)

		Expect(errors.Is(err, core.ErrNoMemory)).To(BeTrue())
	})

	It("should reject thresholds outside (0, 1]", func() {
		_, err := ledger.Propose(core.ProposalCustom, 0, fixed.Zero, 0)
		Expect(errors.Is(err, core.ErrInvalidArg)).To(BeTrue())

		_, err = ledger.Propose(core.ProposalCustom, 0, fixed.FromInt(2), 0)
		Expect(errors.Is(err, core.ErrInvalidArg)).To(BeTrue())
	})

	It("should time ballots out", func() {
		id, _ := ledger.Propose(core.ProposalModeChange, 1, core.Supermajority, 1000)

		ledger.Tick(1000 + core.DefaultVoteTimeout - 1)
		Expect(ledger.Result(id)).To(Equal(core.VotePending))

		ledger.Tick(1000 + core.DefaultVoteTimeout)
		Expect(ledger.Result(id)).To(Equal(core.VoteTimeout))
		Expect(ledger.Open()).To(Equal(0))

		ballots := ledger.Ballots()
		Expect(ballots).To(HaveLen(1))
		Expect(ballots[0].Closed).To(Equal(1000 + core.DefaultVoteTimeout))
	})

	It("should forget old closed ballots", func() {
		id, _ := ledger.Propose(core.ProposalModeChange, 1, core.Supermajority, 0)
		ledger.Tick(core.DefaultVoteTimeout)

		ledger.Tick(11*core.DefaultVoteTimeout + 1)

		Expect(ledger.Ballots()).To(BeEmpty())
		Expect(ledger.Result(id)).To(Equal(core.VoteCancelled))
	})
})
