package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
)

var _ = Describe("DecayFactor", func() {
	tau := core.DefaultDecayTau

	It("should hit the checkpoints exactly", func() {
		Expect(field.DecayFactor(field.DecayPiecewise, 0, tau)).
			To(Equal(fixed.One))
		Expect(field.DecayFactor(field.DecayPiecewise, tau, tau)).
			To(Equal(fixed.Half))
		Expect(field.DecayFactor(field.DecayPiecewise, 2*tau, tau)).
			To(Equal(fixed.Quarter))
		Expect(field.DecayFactor(field.DecayPiecewise, 3*tau, tau)).
			To(Equal(fixed.Zero))
		Expect(field.DecayFactor(field.DecayPiecewise, 10*tau, tau)).
			To(Equal(fixed.Zero))
	})

	It("should never increase with elapsed time", func() {
		prev := fixed.Max
		for t := core.TimeUs(0); t <= 4*tau; t += tau / 200 {
			f := field.DecayFactor(field.DecayPiecewise, t, tau)
			Expect(f).To(BeNumerically("<=", prev))
			Expect(f).To(BeNumerically(">=", fixed.Zero))
			prev = f
		}
	})

	It("should stay positive right before each checkpoint", func() {
		Expect(field.DecayFactor(field.DecayPiecewise, tau-1, tau)).
			To(BeNumerically(">", fixed.Half))
		Expect(field.DecayFactor(field.DecayPiecewise, 2*tau-1, tau)).
			To(BeNumerically(">", fixed.Quarter))
		Expect(field.DecayFactor(field.DecayPiecewise, 3*tau-1, tau)).
			To(BeNumerically(">", fixed.Zero))
	})

	It("should decay linearly", func() {
		Expect(field.DecayFactor(field.DecayLinear, tau/2, tau)).
			To(Equal(fixed.Half))
		Expect(field.DecayFactor(field.DecayLinear, tau, tau)).
			To(Equal(fixed.Zero))
	})

	It("should decay in one step", func() {
		Expect(field.DecayFactor(field.DecayStep, tau-1, tau)).
			To(Equal(fixed.One))
		Expect(field.DecayFactor(field.DecayStep, tau, tau)).
			To(Equal(fixed.Zero))
	})
})
