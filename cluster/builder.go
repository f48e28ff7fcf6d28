package cluster

import (
	"fmt"

	"github.com/sarchlab/korfield/config"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/module"
	"github.com/sarchlab/korfield/timing"
)

// A Builder creates clusters.
type Builder struct {
	cfg       config.Cluster
	engine    timing.Engine
	callbacks module.Callbacks
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: config.Default(),
	}
}

// WithConfig sets the cluster configuration.
func (b Builder) WithConfig(cfg config.Cluster) Builder {
	b.cfg = cfg
	return b
}

// WithEngine sets the simulation engine. Without one, a serial or parallel
// engine is created according to the configuration.
func (b Builder) WithEngine(engine timing.Engine) Builder {
	b.engine = engine
	return b
}

// WithCallbacks sets the observers installed on every module.
func (b Builder) WithCallbacks(callbacks module.Callbacks) Builder {
	b.callbacks = callbacks
	return b
}

// Build creates the cluster.
func (b Builder) Build(name string) (*Cluster, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	fieldEngine, err := b.buildFieldEngine()
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		name:        name,
		engine:      b.engine,
		region:      field.NewRegion(),
		fieldEngine: fieldEngine,
		byID:        make(map[core.ModuleID]*Node),
	}

	if c.engine == nil {
		c.engine = b.defaultEngine()
	}

	b.buildNodes(c)
	b.buildCollector(c)
	b.buildDispatcher(c)
	c.snapshotStatus()

	return c, nil
}

func (b Builder) defaultEngine() timing.Engine {
	if b.cfg.Parallel {
		return timing.NewParallelEngine()
	}

	return timing.NewSerialEngine()
}

func (b Builder) buildFieldEngine() (*field.Engine, error) {
	e := field.NewEngine()

	configs, err := b.cfg.ComponentConfigs()
	if err != nil {
		return nil, err
	}

	for comp, cfg := range configs {
		if err := e.Configure(comp, cfg); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Position returns where module index i sits on the grid.
func (b Builder) Position(i int) core.Position {
	return core.Position{
		X: int16(i % b.cfg.GridWidth),
		Y: int16(i / b.cfg.GridWidth),
	}
}

func (b Builder) buildNodes(c *Cluster) {
	freq := timing.Freq(b.cfg.TickHz)
	period := freq.Period()

	positions := make(map[core.ModuleID]core.Position, b.cfg.Modules)
	for i := 0; i < b.cfg.Modules; i++ {
		positions[core.ModuleID(i+1)] = b.Position(i)
	}

	failures := make(map[int]*config.Failure)
	for i := range b.cfg.Failures {
		f := b.cfg.Failures[i]
		failures[f.Module] = &f
	}

	for i := 0; i < b.cfg.Modules; i++ {
		id := core.ModuleID(i + 1)
		name := fmt.Sprintf("%s.Module[%d]", c.name, i)

		topology := NewStaticTopology(id, positions[id], positions)
		heartbeat := NewRegionHeartbeat(c.region, period, topology.Candidates())
		topology.UseHeartbeat(heartbeat)
		consensus := NewLedgerConsensus(core.DefaultVoteTimeout)

		m := module.MakeBuilder().
			WithID(id).
			WithPosition(positions[id]).
			WithEngine(c.fieldEngine).
			WithTopology(topology).
			WithHeartbeat(heartbeat).
			WithConsensus(consensus).
			WithCallbacks(b.callbacks).
			Build(name)

		n := &Node{
			index:       i,
			module:      m,
			region:      c.region,
			heartbeat:   heartbeat,
			topology:    topology,
			consensus:   consensus,
			failure:     failures[i],
			capacity:    b.cfg.Workload.Capacity,
			serviceRate: b.cfg.Workload.ServiceRate,
		}
		n.TickingComponent = timing.NewTickingComponent(name, c.engine, freq, n)
		n.registerTasks()

		c.nodes = append(c.nodes, n)
		c.byID[id] = n
	}
}

func (b Builder) buildCollector(c *Cluster) {
	col := &Collector{
		region: c.region,
		engine: c.fieldEngine,
		maxAge: b.cfg.GC.MaxAgeUs,
	}

	freq := timing.Freq(1e6 / float64(b.cfg.GC.PeriodUs))
	col.TickingComponent = timing.NewSecondaryTickingComponent(
		c.name+".Collector", c.engine, freq, col)

	c.collector = col
}

func (b Builder) buildDispatcher(c *Cluster) {
	d := &Dispatcher{
		cluster:  c,
		workload: NewWorkload(b.cfg.Workload, b.cfg.Seed),
	}

	d.TickingComponent = timing.NewSecondaryTickingComponent(
		c.name+".Dispatcher", c.engine, timing.Freq(b.cfg.TickHz), d)

	c.dispatcher = d
}
