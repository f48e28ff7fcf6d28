// Package cluster simulates a cluster of modules on the timing engine. The
// collaborators here are simulation stand-ins. Topology is a fixed grid,
// liveness comes from region slot freshness, and ballots are recorded but
// never decided.
package cluster

import (
	"context"
	"sync/atomic"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/module"
	"github.com/sarchlab/korfield/timing"
)

// A Cluster is a set of modules sharing one field region.
type Cluster struct {
	name        string
	engine      timing.Engine
	region      *field.Region
	fieldEngine *field.Engine
	nodes       []*Node
	byID        map[core.ModuleID]*Node
	collector   *Collector
	dispatcher  *Dispatcher

	started bool
	until   core.TimeUs
	status  atomic.Pointer[[]module.Status]
}

// Name returns the cluster name.
func (c *Cluster) Name() string {
	return c.name
}

// Engine returns the simulation engine.
func (c *Cluster) Engine() timing.Engine {
	return c.engine
}

// Region returns the shared field region.
func (c *Cluster) Region() *field.Region {
	return c.region
}

// FieldEngine returns the field engine shared by every module.
func (c *Cluster) FieldEngine() *field.Engine {
	return c.fieldEngine
}

// Nodes returns every node in index order.
func (c *Cluster) Nodes() []*Node {
	return c.nodes
}

// Modules returns every module in index order.
func (c *Cluster) Modules() []*module.Module {
	modules := make([]*module.Module, len(c.nodes))
	for i, n := range c.nodes {
		modules[i] = n.module
	}

	return modules
}

// Collector returns the garbage collector component.
func (c *Cluster) Collector() *Collector {
	return c.collector
}

// Dispatcher returns the work dispatcher component.
func (c *Cluster) Dispatcher() *Dispatcher {
	return c.dispatcher
}

func (c *Cluster) nodeByID(id core.ModuleID) *Node {
	return c.byID[id]
}

// Now returns the current virtual time.
func (c *Cluster) Now() core.TimeUs {
	return c.engine.Now()
}

// Run starts every module on the first call and then drives the engine for
// duration microseconds of virtual time. Calling Run again continues from
// where the previous call stopped.
func (c *Cluster) Run(ctx context.Context, duration core.TimeUs) error {
	if !c.started {
		c.start()
	}

	c.until += duration
	err := c.engine.Run(ctx, c.until)

	c.snapshotStatus()

	return err
}

func (c *Cluster) start() {
	c.started = true

	for _, n := range c.nodes {
		_ = n.module.Start()
		n.TickNow()
	}

	c.collector.TickNow()
	c.dispatcher.TickNow()
}

// Stop shuts every module down. It must not be called while Run is in
// progress.
func (c *Cluster) Stop() {
	for _, n := range c.nodes {
		n.module.Stop()
	}

	c.snapshotStatus()
}

func (c *Cluster) snapshotStatus() {
	status := make([]module.Status, len(c.nodes))
	for i, n := range c.nodes {
		status[i] = n.module.Status()
	}

	c.status.Store(&status)
}

// Status returns the status of every module as of the end of the latest
// simulated round. It is safe to call while Run is in progress.
func (c *Cluster) Status() []module.Status {
	p := c.status.Load()
	if p == nil {
		return nil
	}

	return *p
}
