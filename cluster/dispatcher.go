package cluster

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
	"github.com/sarchlab/korfield/timing"
)

// A Dispatcher delivers new work after every round of module ticks. Work for
// a module that is backpressured, stopped or suspended goes to its least
// loaded healthy neighbor instead.
type Dispatcher struct {
	*timing.TickingComponent

	cluster  *Cluster
	workload *Workload

	delivered float64
	diverted  float64
	dropped   float64
}

// Tick delivers one tick worth of arrivals and snapshots module status.
func (d *Dispatcher) Tick() (bool, error) {
	now := d.Engine.Now()

	for i, n := range d.cluster.nodes {
		units := d.workload.Arrivals(i)
		if units == 0 {
			continue
		}

		target := d.route(n, now)
		switch {
		case target == nil:
			d.dropped += units
		case target != n:
			d.diverted += units
			target.AddBacklog(units)
		default:
			target.AddBacklog(units)
		}

		d.delivered += units
	}

	d.cluster.snapshotStatus()

	return true, nil
}

func (d *Dispatcher) route(n *Node, now core.TimeUs) *Node {
	if n.Accepting() && !n.module.Backpressured() {
		return n
	}

	var (
		best     *Node
		bestLoad fixed.Fixed
	)

	for _, nb := range n.module.Neighbors() {
		if !nb.IsHealthy() {
			continue
		}

		peer := d.cluster.nodeByID(nb.ID)
		if peer == nil || !peer.Accepting() {
			continue
		}

		f, err := d.cluster.fieldEngine.Sample(d.cluster.region, nb.ID, now)
		if err != nil {
			continue
		}

		load := f.Get(field.Load)
		if best == nil || load < bestLoad {
			best = peer
			bestLoad = load
		}
	}

	if best == nil && n.Accepting() {
		return n
	}

	return best
}

// Delivered returns the units of work generated so far.
func (d *Dispatcher) Delivered() float64 {
	return d.delivered
}

// Diverted returns the units of work routed to a neighbor.
func (d *Dispatcher) Diverted() float64 {
	return d.diverted
}

// Dropped returns the units of work that had nowhere to go.
func (d *Dispatcher) Dropped() float64 {
	return d.dropped
}
