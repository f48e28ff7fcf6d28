package tracing

import (
	"go.uber.org/zap"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/module"
)

// LogTracer writes what it observes to a zap logger. Ticks and task runs are
// logged at debug level.
type LogTracer struct {
	logger *zap.Logger
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(logger *zap.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Tick logs the status at the end of a tick.
func (t *LogTracer) Tick(m *module.Module, d module.TickDetail) {
	if ce := t.logger.Check(zap.DebugLevel, "tick"); ce != nil {
		ce.Write(
			zap.String("module", m.Name()),
			zap.Uint64("now_us", d.Now),
			zap.Stringer("state", d.Status.State),
			zap.Int("neighbors", d.Status.NeighborCount),
			zap.Float64("load_gradient", d.Status.LoadGradient.Float()),
			zap.Bool("task_ran", d.TaskRan),
		)
	}
}

// StateChange logs a lifecycle transition.
func (t *LogTracer) StateChange(m *module.Module, c module.StateChange) {
	t.logger.Info("state change",
		zap.String("module", m.Name()),
		zap.Stringer("from", c.From),
		zap.Stringer("to", c.To),
		zap.Uint64("now_us", c.Now),
	)
}

// TaskRun logs a task execution.
func (t *LogTracer) TaskRun(m *module.Module, task *module.Task, now core.TimeUs) {
	t.logger.Debug("task run",
		zap.String("module", m.Name()),
		zap.String("task", task.Name),
		zap.Uint32("runs", task.RunCount),
		zap.Uint64("now_us", now),
	)
}

// NeighborLost logs a dropped neighbor.
func (t *LogTracer) NeighborLost(m *module.Module, lost core.ModuleID) {
	t.logger.Warn("neighbor lost",
		zap.String("module", m.Name()),
		zap.Uint16("neighbor", uint16(lost)),
		zap.Uint64("now_us", m.LastTick()),
	)
}

// GC logs a sweep. Sweeps that reclaim slots are logged at info level.
func (t *LogTracer) GC(d cluster.GCDetail) {
	level := zap.DebugLevel
	if d.Cleared > 0 {
		level = zap.InfoLevel
	}

	t.logger.Log(level, "gc sweep",
		zap.Uint64("now_us", d.Now),
		zap.Int("cleared", d.Cleared),
		zap.Int("live", d.Live),
	)
}
