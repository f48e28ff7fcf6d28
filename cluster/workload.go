package cluster

import (
	"math/rand"

	"github.com/sarchlab/korfield/config"
)

// Workload generates the work that arrives at each module. It is
// deterministic for a given seed as long as it is driven from one goroutine.
type Workload struct {
	rng      *rand.Rand
	rate     float64
	gain     float64
	hotspots map[int]bool
}

// NewWorkload creates a workload generator.
func NewWorkload(cfg config.Workload, seed int64) *Workload {
	w := &Workload{
		rng:      rand.New(rand.NewSource(seed)),
		rate:     cfg.ArrivalRate,
		gain:     cfg.HotspotGain,
		hotspots: make(map[int]bool),
	}

	for _, h := range cfg.Hotspots {
		w.hotspots[h] = true
	}

	return w
}

// Arrivals returns the units of work arriving at a module in one tick. The
// mean is the arrival rate, multiplied by the gain at hotspots.
func (w *Workload) Arrivals(index int) float64 {
	rate := w.rate
	if w.hotspots[index] {
		rate *= w.gain
	}

	return rate * 2 * w.rng.Float64()
}

// IsHotspot reports whether the module receives boosted arrivals.
func (w *Workload) IsHotspot(index int) bool {
	return w.hotspots[index]
}
