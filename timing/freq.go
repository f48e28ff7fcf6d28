package timing

import (
	"log"
	"math"

	"github.com/sarchlab/korfield/core"
)

// Freq is a frequency in Hz.
type Freq float64

// Frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
)

// Period returns the number of microseconds between two ticks. The period is
// rounded to the nearest microsecond.
func (f Freq) Period() core.TimeUs {
	if f <= 0 || math.IsNaN(float64(f)) {
		log.Panic("frequency must be positive")
	}

	p := math.Round(1e6 / float64(f))
	if p < 1 {
		log.Panic("frequency above 1 MHz cannot be represented")
	}

	return core.TimeUs(p)
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(now core.TimeUs) uint64 {
	return now / f.Period()
}

// ThisTick returns the tick time at or right after now.
//
//	              Input
//	              (          ]
//	   |----------|----------|----------|----->
//	                         |
//	                         Output
func (f Freq) ThisTick(now core.TimeUs) core.TimeUs {
	p := f.Period()

	return (now + p - 1) / p * p
}

// NextTick returns the tick time strictly after now.
//
//	              Input
//	              [          )
//	   |----------|----------|----------|----->
//	                         |
//	                         Output
func (f Freq) NextTick(now core.TimeUs) core.TimeUs {
	p := f.Period()

	return (now/p + 1) * p
}

// NCyclesLater returns the tick time n cycles after now.
func (f Freq) NCyclesLater(n int, now core.TimeUs) core.TimeUs {
	return f.ThisTick(now) + core.TimeUs(n)*f.Period()
}
