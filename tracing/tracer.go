// Package tracing turns module and cluster hooks into logs, counters and
// database records.
package tracing

import (
	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/module"
)

// A Tracer is told about what happens inside modules and the collector.
// Tracers attached to more than one module must be safe for concurrent use.
type Tracer interface {
	Tick(m *module.Module, detail module.TickDetail)
	StateChange(m *module.Module, change module.StateChange)
	TaskRun(m *module.Module, task *module.Task, now core.TimeUs)
	NeighborLost(m *module.Module, lost core.ModuleID)
	GC(detail cluster.GCDetail)
}
