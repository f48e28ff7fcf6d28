package field

import (
	"fmt"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

// HorizonFactor is the number of decay time constants after which a sample
// is refused rather than decayed further.
const HorizonFactor = 5

// MaxTau is the largest accepted decay time constant (one hour).
const MaxTau core.TimeUs = 3_600_000_000

// ComponentConfig controls the decay of one component.
type ComponentConfig struct {
	Tau   core.TimeUs
	Model DecayModel
}

// DefaultComponentConfig decays with the piecewise model and the default
// time constant.
func DefaultComponentConfig() ComponentConfig {
	return ComponentConfig{
		Tau:   core.DefaultDecayTau,
		Model: DecayPiecewise,
	}
}

// Engine publishes, samples and aggregates fields. It holds no state besides
// its per-component configuration and can be shared by many modules.
type Engine struct {
	config  [core.FieldCount]ComponentConfig
	horizon core.TimeUs
}

// NewEngine creates an engine with the default configuration on every
// component.
func NewEngine() *Engine {
	e := &Engine{}

	for i := range e.config {
		e.config[i] = DefaultComponentConfig()
	}

	e.updateHorizon()

	return e
}

// Configure replaces the configuration of one component.
func (e *Engine) Configure(c Component, cfg ComponentConfig) error {
	if c < 0 || int(c) >= core.FieldCount {
		return fmt.Errorf("component %d: %w", c, core.ErrInvalidArg)
	}

	if cfg.Tau == 0 || cfg.Tau > MaxTau {
		return fmt.Errorf("decay tau %d: %w", cfg.Tau, core.ErrInvalidArg)
	}

	switch cfg.Model {
	case DecayPiecewise, DecayLinear, DecayStep:
	default:
		return fmt.Errorf("decay model %d: %w", cfg.Model, core.ErrInvalidArg)
	}

	e.config[c] = cfg
	e.updateHorizon()

	return nil
}

// Config returns the configuration of one component.
func (e *Engine) Config(c Component) ComponentConfig {
	return e.config[c]
}

// Horizon returns the staleness horizon: HorizonFactor times the largest
// configured time constant.
func (e *Engine) Horizon() core.TimeUs {
	return e.horizon
}

func (e *Engine) updateHorizon() {
	var maxTau core.TimeUs
	for _, c := range e.config {
		if c.Tau > maxTau {
			maxTau = c.Tau
		}
	}

	e.horizon = HorizonFactor * maxTau
}

// Publish stores f as the field of module id, stamped with now.
func (e *Engine) Publish(
	region *Region,
	id core.ModuleID,
	f Field,
	now core.TimeUs,
) error {
	if !id.Valid() {
		return fmt.Errorf("publish as module %d: %w", id, core.ErrInvalidArg)
	}

	var seq uint8
	if prev := region.load(id); prev != nil {
		seq = prev.Sequence
	}

	stored := &Field{
		Components: f.Components,
		Timestamp:  now,
		Source:     id,
		Sequence:   seq + 1,
	}

	region.store(id, stored)

	return nil
}

// Sample returns the field of module id with decay applied.
func (e *Engine) Sample(
	region *Region,
	id core.ModuleID,
	now core.TimeUs,
) (Field, error) {
	if err := checkID(id); err != nil {
		return Field{}, err
	}

	stored := region.load(id)
	if stored == nil || !stored.Published() {
		return Field{}, fmt.Errorf("sample module %d: %w", id, core.ErrNotFound)
	}

	elapsed := core.SaturatingSub(now, stored.Timestamp)
	if elapsed > e.horizon {
		return Field{}, fmt.Errorf(
			"sample module %d, age %dus: %w", id, elapsed, core.ErrFieldExpired)
	}

	f := *stored
	e.ApplyDecay(&f, elapsed)

	return f, nil
}

// ApplyDecay scales every component of f by its decay factor after elapsed
// microseconds.
func (e *Engine) ApplyDecay(f *Field, elapsed core.TimeUs) {
	for i, cfg := range e.config {
		factor := DecayFactor(cfg.Model, elapsed, cfg.Tau)
		f.Components[i] = f.Components[i].SaturatingMul(factor)
	}
}

// HealthWeight returns the weight a neighbor's field carries in the
// aggregate. Anything but Alive or Suspect carries none.
func HealthWeight(h core.HealthState) fixed.Fixed {
	switch h {
	case core.HealthAlive:
		return fixed.One
	case core.HealthSuspect:
		return fixed.Half
	default:
		return fixed.Zero
	}
}

// SampleNeighbors returns the health-weighted average of the neighbors'
// decayed fields. Only the first core.KNeighbors entries are considered.
// Neighbors that are dead, unhealthy, or whose sample fails do not count. If
// nothing contributes, the empty field is returned, which callers must read
// as "no signal".
func (e *Engine) SampleNeighbors(
	region *Region,
	neighbors []Neighbor,
	now core.TimeUs,
) Field {
	if len(neighbors) > core.KNeighbors {
		neighbors = neighbors[:core.KNeighbors]
	}

	aggregate := Field{}
	total := fixed.Zero

	for _, n := range neighbors {
		if n.Health == core.HealthDead {
			continue
		}

		weight := HealthWeight(n.Health)
		if weight == fixed.Zero {
			continue
		}

		f, err := e.Sample(region, n.ID, now)
		if err != nil {
			continue
		}

		for i := range aggregate.Components {
			weighted := f.Components[i].SaturatingMul(weight)
			aggregate.Components[i] =
				aggregate.Components[i].SaturatingAdd(weighted)
		}

		total = total.SaturatingAdd(weight)
	}

	if total > fixed.Zero {
		for i := range aggregate.Components {
			aggregate.Components[i] = aggregate.Components[i].SaturatingDiv(total)
		}
	}

	return aggregate
}

// Gradient returns aggregate[c] - mine[c]. A positive value means the
// neighbors are higher than this module on that axis.
func (e *Engine) Gradient(mine, aggregate Field, c Component) fixed.Fixed {
	return aggregate.Get(c).SaturatingSub(mine.Get(c))
}

// GradientAll returns the gradient of every component, in AllComponents
// order.
func (e *Engine) GradientAll(mine, aggregate Field) Vector {
	var g Vector
	for i, c := range AllComponents {
		g[i] = e.Gradient(mine, aggregate, c)
	}

	return g
}

// GC clears every published slot older than maxAge and returns how many were
// cleared. A slot republished while the sweep runs is left alone.
func (e *Engine) GC(region *Region, now, maxAge core.TimeUs) int {
	cleared := 0

	for i := 1; i < core.MaxModules; i++ {
		id := core.ModuleID(i)

		stored := region.load(id)
		if stored == nil {
			continue
		}

		if core.SaturatingSub(now, stored.Timestamp) <= maxAge {
			continue
		}

		if region.reclaim(id, stored) {
			cleared++
		}
	}

	region.lastGC.Store(now)

	return cleared
}
