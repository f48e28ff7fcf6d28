package tracing

import (
	"sync"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/module"
)

// A Transition is a pair of lifecycle states.
type Transition struct {
	From module.State
	To   module.State
}

// CountTracer counts what it observes.
type CountTracer struct {
	lock          sync.Mutex
	ticks         uint64
	transitions   map[Transition]uint64
	taskRuns      map[string]uint64
	neighborsLost uint64
	gcSweeps      uint64
	gcCleared     uint64
}

// NewCountTracer creates a CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		transitions: make(map[Transition]uint64),
		taskRuns:    make(map[string]uint64),
	}
}

// Tick counts a tick.
func (t *CountTracer) Tick(*module.Module, module.TickDetail) {
	t.lock.Lock()
	t.ticks++
	t.lock.Unlock()
}

// StateChange counts a transition.
func (t *CountTracer) StateChange(_ *module.Module, c module.StateChange) {
	t.lock.Lock()
	t.transitions[Transition{From: c.From, To: c.To}]++
	t.lock.Unlock()
}

// TaskRun counts a run of the task's name.
func (t *CountTracer) TaskRun(_ *module.Module, task *module.Task, _ core.TimeUs) {
	t.lock.Lock()
	t.taskRuns[task.Name]++
	t.lock.Unlock()
}

// NeighborLost counts a dropped neighbor.
func (t *CountTracer) NeighborLost(*module.Module, core.ModuleID) {
	t.lock.Lock()
	t.neighborsLost++
	t.lock.Unlock()
}

// GC counts a sweep and the slots it reclaimed.
func (t *CountTracer) GC(d cluster.GCDetail) {
	t.lock.Lock()
	t.gcSweeps++
	t.gcCleared += uint64(d.Cleared)
	t.lock.Unlock()
}

// Ticks returns the number of module ticks.
func (t *CountTracer) Ticks() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ticks
}

// Transitions returns how many times any module went from one state to
// another.
func (t *CountTracer) Transitions(from, to module.State) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.transitions[Transition{From: from, To: to}]
}

// TaskRuns returns how many times tasks with the name ran.
func (t *CountTracer) TaskRuns(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskRuns[name]
}

// NeighborsLost returns the number of neighbors dropped.
func (t *CountTracer) NeighborsLost() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.neighborsLost
}

// GCSweeps returns the number of sweeps and the slots they reclaimed.
func (t *CountTracer) GCSweeps() (sweeps, cleared uint64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.gcSweeps, t.gcCleared
}
