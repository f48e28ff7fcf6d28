package cluster

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

var _ = Describe("RegionHeartbeat", func() {
	var (
		engine    *field.Engine
		region    *field.Region
		heartbeat *RegionHeartbeat
	)

	BeforeEach(func() {
		engine = field.NewEngine()
		region = field.NewRegion()
		heartbeat = NewRegionHeartbeat(region, 10_000, []core.ModuleID{2, 3})
	})

	publish := func(id core.ModuleID, now core.TimeUs) {
		Expect(engine.Publish(region, id, field.Field{}, now)).To(Succeed())
	}

	It("should keep silent peers Unknown", func() {
		Expect(heartbeat.Tick(50_000)).To(Equal(0))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthUnknown))
		Expect(heartbeat.Health(42)).To(Equal(core.HealthUnknown))
	})

	It("should follow slot freshness", func() {
		publish(2, 0)

		Expect(heartbeat.Tick(10_000)).To(Equal(1))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthAlive))

		Expect(heartbeat.Tick(20_000)).To(Equal(1))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthSuspect))

		Expect(heartbeat.Tick(50_000)).To(Equal(0))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthSuspect))

		Expect(heartbeat.Tick(60_000)).To(Equal(1))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthDead))

		lastSeen, missed := heartbeat.LastSeen(2)
		Expect(lastSeen).To(Equal(core.TimeUs(0)))
		Expect(missed).To(Equal(uint8(5)))

		publish(2, 70_000)
		Expect(heartbeat.Tick(70_000)).To(Equal(1))
		Expect(heartbeat.Health(2)).To(Equal(core.HealthAlive))
	})

	It("should keep a reclaimed peer dead", func() {
		publish(3, 0)
		heartbeat.Tick(0)
		Expect(engine.GC(region, 100_000, 50_000)).To(Equal(1))

		heartbeat.Tick(100_000)

		Expect(heartbeat.Health(3)).To(Equal(core.HealthDead))
	})
})
