package module

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
	"github.com/sarchlab/korfield/hooking"
)

var _ = Describe("Module", func() {
	var (
		mockCtrl  *gomock.Controller
		topology  *MockTopology
		heartbeat *MockHeartbeat
		consensus *MockConsensus
		engine    *field.Engine
		region    *field.Region
		m         *Module
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		topology = NewMockTopology(mockCtrl)
		heartbeat = NewMockHeartbeat(mockCtrl)
		consensus = NewMockConsensus(mockCtrl)
		engine = field.NewEngine()
		region = field.NewRegion()

		m = MakeBuilder().
			WithID(1).
			WithEngine(engine).
			WithTopology(topology).
			WithHeartbeat(heartbeat).
			WithConsensus(consensus).
			Build("M1")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	expectQuietTick := func(now core.TimeUs, neighbors []field.Neighbor) {
		heartbeat.EXPECT().Tick(now).Return(0)
		topology.EXPECT().Neighbors().Return(neighbors).AnyTimes()
		topology.EXPECT().NeighborCount().Return(len(neighbors)).AnyTimes()
		consensus.EXPECT().Tick(now)
		topology.EXPECT().Tick(now).Return(false)
	}

	Context("lifecycle", func() {
		It("should start only from Init", func() {
			var prev []State
			m.SetCallbacks(Callbacks{
				StateChanged: func(_ *Module, p State) { prev = append(prev, p) },
			})

			Expect(m.Start()).To(Succeed())
			Expect(m.State()).To(Equal(StateDiscovering))
			Expect(prev).To(Equal([]State{StateInit}))

			err := m.Start()
			Expect(errors.Is(err, core.ErrInvalidArg)).To(BeTrue())
			Expect(m.State()).To(Equal(StateDiscovering))
		})

		It("should stop from any state", func() {
			m.state = StateDegraded

			m.Stop()

			Expect(m.State()).To(Equal(StateShutdown))
		})

		It("should keep publishing after shutdown", func() {
			m.Stop()
			expectQuietTick(100, []field.Neighbor{
				{ID: 2}, {ID: 3}, {ID: 4},
			})

			Expect(m.Tick(region, 100)).To(Succeed())

			Expect(m.State()).To(Equal(StateShutdown))
			Expect(m.Status().TicksTotal).To(Equal(uint32(1)))
			f, err := engine.Sample(region, 1, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Source).To(Equal(core.ModuleID(1)))
		})

		DescribeTable("transitions by neighbor count",
			func(from State, k int, to State) {
				m.state = from
				topology.EXPECT().NeighborCount().Return(k)

				m.updateStateFromTopology()

				Expect(m.State()).To(Equal(to))
			},
			Entry("Discovering needs three", StateDiscovering, 2, StateDiscovering),
			Entry("Discovering at three", StateDiscovering, 3, StateActive),
			Entry("Active stays with three", StateActive, 3, StateActive),
			Entry("Active degrades at two", StateActive, 2, StateDegraded),
			Entry("Active degrades at one", StateActive, 1, StateDegraded),
			Entry("Active isolates at zero", StateActive, 0, StateIsolated),
			Entry("Degraded holds at one", StateDegraded, 1, StateDegraded),
			Entry("Degraded holds at zero", StateDegraded, 0, StateDegraded),
			Entry("Degraded recovers at three", StateDegraded, 3, StateActive),
			Entry("Isolated holds at zero", StateIsolated, 0, StateIsolated),
			Entry("Isolated reforms at one", StateIsolated, 1, StateReforming),
			Entry("Reforming holds at two", StateReforming, 2, StateReforming),
			Entry("Reforming activates at three", StateReforming, 3, StateActive),
			Entry("Init ignores neighbors", StateInit, 7, StateInit),
		)

		It("should never leave Shutdown", func() {
			m.state = StateShutdown
			topology.EXPECT().NeighborCount().Return(0)
			topology.EXPECT().NeighborCount().Return(1)
			topology.EXPECT().NeighborCount().Return(3)
			topology.EXPECT().NeighborCount().Return(7)

			for i := 0; i < 4; i++ {
				m.updateStateFromTopology()
				Expect(m.State()).To(Equal(StateShutdown))
			}
		})
	})

	Context("tick", func() {
		It("should run the steps in order", func() {
			neighbors := []field.Neighbor{{ID: 2, Health: core.HealthAlive}}

			gomock.InOrder(
				heartbeat.EXPECT().Tick(core.TimeUs(500)).Return(0),
				topology.EXPECT().Neighbors().Return(neighbors),
				consensus.EXPECT().Tick(core.TimeUs(500)),
				topology.EXPECT().Tick(core.TimeUs(500)).Return(false),
				topology.EXPECT().NeighborCount().Return(1),
			)

			Expect(m.Tick(region, 500)).To(Succeed())

			f, err := region.Get(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Timestamp).To(Equal(core.TimeUs(500)))
			Expect(f.Source).To(Equal(core.ModuleID(1)))
		})

		It("should publish every tick even without changes", func() {
			expectQuietTick(100, nil)
			Expect(m.Tick(region, 100)).To(Succeed())
			region.ConsumeUpdates()

			expectQuietTick(200, nil)
			Expect(m.Tick(region, 200)).To(Succeed())

			Expect(region.IsUpdated(1)).To(BeTrue())
			Expect(m.Status().FieldUpdates).To(Equal(uint32(2)))
		})

		It("should compute the gradient from neighbor fields", func() {
			Expect(engine.Publish(region, 2,
				field.WithValues(fixed.FromFloat(0.7), fixed.Zero, fixed.Zero),
				1000)).To(Succeed())
			m.UpdateField(fixed.FromFloat(0.3), fixed.Zero, fixed.Zero)

			expectQuietTick(1000, []field.Neighbor{
				{ID: 2, Health: core.HealthAlive},
			})
			Expect(m.Tick(region, 1000)).To(Succeed())

			Expect(m.Gradient(field.Load)).To(Equal(fixed.FromFloat(0.4)))
			Expect(m.Gradients()[field.Load]).To(Equal(fixed.FromFloat(0.4)))
			Expect(m.Aggregate().Get(field.Load)).To(Equal(fixed.FromFloat(0.7)))
		})

		It("should drop dead neighbors after collecting them", func() {
			neighbors := []field.Neighbor{
				{ID: 2, Health: core.HealthAlive},
				{ID: 3, Health: core.HealthAlive},
				{ID: 4, Health: core.HealthAlive},
			}
			var lost []core.ModuleID
			m.SetCallbacks(Callbacks{
				NeighborLost: func(_ *Module, id core.ModuleID) {
					lost = append(lost, id)
				},
			})

			heartbeat.EXPECT().Tick(core.TimeUs(10)).Return(2)
			topology.EXPECT().Neighbors().Return(neighbors).AnyTimes()
			topology.EXPECT().NeighborCount().Return(1).AnyTimes()
			heartbeat.EXPECT().Health(core.ModuleID(2)).Return(core.HealthDead)
			heartbeat.EXPECT().Health(core.ModuleID(3)).Return(core.HealthSuspect)
			heartbeat.EXPECT().Health(core.ModuleID(4)).Return(core.HealthDead)
			topology.EXPECT().OnNeighborLost(core.ModuleID(2)).Return(nil)
			topology.EXPECT().OnNeighborLost(core.ModuleID(4)).Return(nil)
			consensus.EXPECT().Tick(core.TimeUs(10))
			topology.EXPECT().Tick(core.TimeUs(10)).Return(false)

			Expect(m.Tick(region, 10)).To(Succeed())

			Expect(lost).To(Equal([]core.ModuleID{2, 4}))
			Expect(m.Status().TopologyChanges).To(Equal(uint32(2)))
		})

		It("should report a lost neighbor the topology fails to drop", func() {
			neighbors := []field.Neighbor{{ID: 2, Health: core.HealthAlive}}
			var lost []core.ModuleID
			m.SetCallbacks(Callbacks{
				NeighborLost: func(_ *Module, id core.ModuleID) {
					lost = append(lost, id)
				},
			})

			hook := NewMockHook(mockCtrl)
			m.AcceptHook(hook)
			var lostByHook []any
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					if ctx.Pos == HookPosNeighborLost {
						lostByHook = append(lostByHook, ctx.Detail)
					}
				}).
				AnyTimes()

			heartbeat.EXPECT().Tick(core.TimeUs(10)).Return(1)
			topology.EXPECT().Neighbors().Return(neighbors).AnyTimes()
			topology.EXPECT().NeighborCount().Return(0).AnyTimes()
			heartbeat.EXPECT().Health(core.ModuleID(2)).Return(core.HealthDead)
			topology.EXPECT().OnNeighborLost(core.ModuleID(2)).
				Return(core.ErrNotFound)
			consensus.EXPECT().Tick(core.TimeUs(10))
			topology.EXPECT().Tick(core.TimeUs(10)).Return(false)

			Expect(m.Tick(region, 10)).To(Succeed())

			Expect(lost).To(Equal([]core.ModuleID{2}))
			Expect(lostByHook).To(Equal([]any{core.ModuleID(2)}))
			Expect(m.Status().TopologyChanges).To(Equal(uint32(1)))
		})

		It("should report newly found neighbors once", func() {
			var found []core.ModuleID
			m.SetCallbacks(Callbacks{
				NeighborFound: func(_ *Module, id core.ModuleID) {
					found = append(found, id)
				},
			})
			neighbors := []field.Neighbor{{ID: 5, Health: core.HealthAlive}}

			for _, now := range []core.TimeUs{10, 20} {
				heartbeat.EXPECT().Tick(now).Return(0)
				consensus.EXPECT().Tick(now)
				topology.EXPECT().Tick(now).Return(true)
			}
			topology.EXPECT().Neighbors().Return(neighbors).AnyTimes()
			topology.EXPECT().NeighborCount().Return(1).AnyTimes()

			Expect(m.Tick(region, 10)).To(Succeed())
			Expect(m.Tick(region, 20)).To(Succeed())

			Expect(found).To(Equal([]core.ModuleID{5}))
			Expect(m.Status().TopologyChanges).To(Equal(uint32(2)))
		})

		It("should run at most one task per tick", func() {
			runs := 0
			_, _ = m.AddTask("a", func(TaskContext) { runs++ }, 1, 0)
			_, _ = m.AddTask("b", func(TaskContext) { runs++ }, 1, 0)

			expectQuietTick(10, nil)
			Expect(m.Tick(region, 10)).To(Succeed())

			Expect(runs).To(Equal(1))
		})

		It("should fail to publish with an invalid id", func() {
			bad := MakeBuilder().
				WithTopology(topology).
				WithHeartbeat(heartbeat).
				WithConsensus(consensus).
				Build("bad")

			expectQuietTick(10, nil)
			err := bad.Tick(region, 10)

			Expect(errors.Is(err, core.ErrInvalidArg)).To(BeTrue())
		})

		It("should invoke hooks", func() {
			hook := NewMockHook(mockCtrl)
			m.AcceptHook(hook)

			var positions []*hooking.HookPos
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					positions = append(positions, ctx.Pos)
				}).
				AnyTimes()

			Expect(m.Start()).To(Succeed())
			_, _ = m.AddTask("a", func(TaskContext) {}, 0, 0)
			expectQuietTick(10, []field.Neighbor{
				{ID: 2}, {ID: 3}, {ID: 4},
			})
			Expect(m.Tick(region, 10)).To(Succeed())

			Expect(positions).To(Equal([]*hooking.HookPos{
				HookPosStateChange,
				HookPosTaskRun,
				HookPosFieldPublished,
				HookPosStateChange,
				HookPosTick,
			}))
		})
	})

	Context("field", func() {
		It("should notify field changes", func() {
			var seen []field.Field
			m.SetCallbacks(Callbacks{
				FieldChanged: func(_ *Module, f field.Field) {
					seen = append(seen, f)
				},
			})

			m.UpdateField(fixed.Half, fixed.Quarter, fixed.One)
			Expect(m.SetComponent(field.Custom0, fixed.One)).To(Succeed())

			Expect(seen).To(HaveLen(2))
			Expect(seen[1].Get(field.Thermal)).To(Equal(fixed.Quarter))
			Expect(m.Field().Get(field.Custom0)).To(Equal(fixed.One))
		})

		It("should reject unknown components", func() {
			err := m.SetComponent(field.Component(9), fixed.One)
			Expect(errors.Is(err, core.ErrInvalidArg)).To(BeTrue())
		})
	})

	Context("consensus", func() {
		It("should propose modes with a supermajority", func() {
			consensus.EXPECT().
				Propose(core.ProposalModeChange, uint32(2), core.Supermajority,
					core.TimeUs(30)).
				Return(core.BallotID(7), nil)

			ballot, err := m.ProposeMode(2, 30)

			Expect(err).NotTo(HaveOccurred())
			Expect(ballot).To(Equal(core.BallotID(7)))
			Expect(m.ActiveBallots()).To(Equal(1))
			topology.EXPECT().NeighborCount().Return(0).AnyTimes()
			Expect(m.Status().ConsensusRounds).To(Equal(uint32(1)))
		})

		It("should propose power limits with a simple majority", func() {
			consensus.EXPECT().
				Propose(core.ProposalPowerLimit, uint32(1500), core.SimpleMajority,
					core.TimeUs(30)).
				Return(core.BallotID(3), nil)

			ballot, err := m.ProposePowerLimit(1500, 30)

			Expect(err).NotTo(HaveOccurred())
			Expect(ballot).To(Equal(core.BallotID(3)))
		})

		It("should pass proposal errors through", func() {
			consensus.EXPECT().
				Propose(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(core.InvalidBallotID, core.ErrNoMemory)

			_, err := m.ProposePowerLimit(1500, 30)

			Expect(errors.Is(err, core.ErrNoMemory)).To(BeTrue())
			Expect(m.ActiveBallots()).To(BeZero())
			topology.EXPECT().NeighborCount().Return(0).AnyTimes()
			Expect(m.Status().ConsensusRounds).To(Equal(uint32(1)))
		})

		It("should report completed ballots on tick", func() {
			var completed []core.VoteResult
			m.SetCallbacks(Callbacks{
				ConsensusComplete: func(
					_ *Module, _ core.BallotID, r core.VoteResult,
				) {
					completed = append(completed, r)
				},
			})
			consensus.EXPECT().
				Propose(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(core.BallotID(1), nil)
			consensus.EXPECT().
				Propose(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(core.BallotID(2), nil)
			_, _ = m.ProposeMode(1, 0)
			_, _ = m.ProposeMode(2, 0)

			consensus.EXPECT().Result(core.BallotID(1)).Return(core.VoteTimeout)
			consensus.EXPECT().Result(core.BallotID(2)).Return(core.VotePending)
			expectQuietTick(60_000, nil)
			Expect(m.Tick(region, 60_000)).To(Succeed())

			Expect(completed).To(Equal([]core.VoteResult{core.VoteTimeout}))
			Expect(m.ActiveBallots()).To(Equal(1))
		})

		It("should forward result queries", func() {
			consensus.EXPECT().Result(core.BallotID(4)).Return(core.VoteApproved)

			Expect(m.ConsensusResult(4)).To(Equal(core.VoteApproved))
		})

		It("should abstain without a vote observer", func() {
			Expect(m.RequestVote(VoteRequest{Ballot: 1})).
				To(Equal(core.VoteAbstain))

			m.SetCallbacks(Callbacks{
				VoteRequested: func(_ *Module, req VoteRequest) core.VoteValue {
					if req.Kind == core.ProposalPowerLimit {
						return core.VoteYes
					}
					return core.VoteNo
				},
			})

			Expect(m.RequestVote(VoteRequest{Kind: core.ProposalPowerLimit})).
				To(Equal(core.VoteYes))
		})
	})

	It("should report status", func() {
		topology.EXPECT().NeighborCount().Return(4)
		m.gradients[field.Load] = fixed.Quarter
		m.gradients[field.Thermal] = fixed.Half

		s := m.Status()

		Expect(s.ID).To(Equal(core.ModuleID(1)))
		Expect(s.Name).To(Equal("M1"))
		Expect(s.State).To(Equal(StateInit))
		Expect(s.NeighborCount).To(Equal(4))
		Expect(s.LoadGradient).To(Equal(fixed.Quarter))
		Expect(s.ThermalGradient).To(Equal(fixed.Half))
	})

	It("should panic without collaborators", func() {
		Expect(func() { MakeBuilder().Build("lonely") }).To(Panic())
	})
})
