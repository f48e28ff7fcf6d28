package cluster

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/hooking"
	"github.com/sarchlab/korfield/timing"
)

// HookPosGC triggers after every garbage collection sweep. The detail is a
// GCDetail.
var HookPosGC = &hooking.HookPos{Name: "GC"}

// GCDetail is the detail of HookPosGC.
type GCDetail struct {
	Now     core.TimeUs
	Cleared int
	Live    int
}

// A Collector is the single owner of region garbage collection.
type Collector struct {
	*timing.TickingComponent

	region  *field.Region
	engine  *field.Engine
	maxAge  core.TimeUs
	sweeps  uint64
	cleared uint64
}

// Tick sweeps the region.
func (c *Collector) Tick() (bool, error) {
	now := c.Engine.Now()

	cleared := c.engine.GC(c.region, now, c.maxAge)
	c.sweeps++
	c.cleared += uint64(cleared)

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosGC,
			Item:   c,
			Detail: GCDetail{
				Now:     now,
				Cleared: cleared,
				Live:    len(c.region.LiveSlots()),
			},
		})
	}

	return true, nil
}

// Sweeps returns the number of sweeps run.
func (c *Collector) Sweeps() uint64 {
	return c.sweeps
}

// Cleared returns the number of slots reclaimed over all sweeps.
func (c *Collector) Cleared() uint64 {
	return c.cleared
}
