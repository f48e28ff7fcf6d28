package cluster

import (
	"github.com/sarchlab/korfield/config"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
	"github.com/sarchlab/korfield/module"
	"github.com/sarchlab/korfield/timing"
)

// ModeActive is the operating mode every node proposes when it joins.
const ModeActive uint32 = 1

const (
	thermalLag     = 0.1
	thermalLimit   = 0.8
	reducedPowerMW = 500
	servePriority  = 1
	joinPriority   = 0
)

// A Node runs one module on the simulation engine and serves a synthetic
// backlog with it.
type Node struct {
	*timing.TickingComponent

	index     int
	module    *module.Module
	region    *field.Region
	heartbeat *RegionHeartbeat
	topology  *StaticTopology
	consensus *LedgerConsensus
	failure   *config.Failure

	backlog     float64
	served      float64
	thermal     float64
	capacity    float64
	serviceRate float64
}

// Index returns the position of the node in the cluster.
func (n *Node) Index() int {
	return n.index
}

// Module returns the module the node runs.
func (n *Node) Module() *module.Module {
	return n.module
}

// Consensus returns the node's ballot ledger.
func (n *Node) Consensus() *LedgerConsensus {
	return n.consensus
}

// Topology returns the node's neighbor selection.
func (n *Node) Topology() *StaticTopology {
	return n.topology
}

// Backlog returns the units of work waiting at the node.
func (n *Node) Backlog() float64 {
	return n.backlog
}

// Served returns the units of work the node has completed.
func (n *Node) Served() float64 {
	return n.served
}

// AddBacklog queues work at the node.
func (n *Node) AddBacklog(units float64) {
	n.backlog += units
}

// Accepting reports whether work can be routed to the node.
func (n *Node) Accepting() bool {
	return n.module.State() != module.StateShutdown && !n.suspended(n.Engine.Now())
}

func (n *Node) suspended(now core.TimeUs) bool {
	f := n.failure
	if f == nil || f.DurationUs == 0 {
		return false
	}

	return now >= f.AtUs && now < f.AtUs+f.DurationUs
}

// Tick runs one coordination period of the module. A node stops ticking once
// its module is shut down.
func (n *Node) Tick() (bool, error) {
	now := n.Engine.Now()

	if n.failure != nil && n.failure.DurationUs == 0 && now >= n.failure.AtUs {
		n.module.Stop()
	}

	if n.module.State() == module.StateShutdown {
		return false, nil
	}

	if n.suspended(now) {
		return true, nil
	}

	if err := n.module.Tick(n.region, now); err != nil {
		return false, err
	}

	return true, nil
}

func (n *Node) registerTasks() {
	_, _ = n.module.AddTask("join", n.join, joinPriority, 0)
	_, _ = n.module.AddTask("serve", n.serve, servePriority, n.Freq.Period())
}

func (n *Node) join(ctx module.TaskContext) {
	_, _ = ctx.Module.ProposeMode(ModeActive, ctx.Start)
}

func (n *Node) serve(ctx module.TaskContext) {
	work := min(n.backlog, n.serviceRate)
	n.backlog -= work
	n.served += work

	load := n.backlog / n.capacity
	n.thermal += (load - n.thermal) * thermalLag

	power := 0.0
	if n.serviceRate > 0 {
		power = work / n.serviceRate
	}

	ctx.Module.UpdateField(
		fixed.FromFloat(load),
		fixed.FromFloat(n.thermal),
		fixed.FromFloat(power),
	)

	if n.thermal > thermalLimit && ctx.Module.ActiveBallots() == 0 {
		_, _ = ctx.Module.ProposePowerLimit(reducedPowerMW, ctx.Start)
	}
}
