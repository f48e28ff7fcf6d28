package tracing

import (
	"sync"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/datarecording"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/module"
)

// Table names used by RecordTracer.
const (
	TableModuleTick = "module_tick"
	TableTransition = "transition"
	TableTaskRun    = "task_run"
	TableGCSweep    = "gc_sweep"
)

// TickEntry is a row of the module_tick table.
type TickEntry struct {
	Module          uint16
	Time            uint64
	State           string
	Load            float64
	LoadGradient    float64
	ThermalGradient float64
	Neighbors       int
	TaskRan         bool
}

// TransitionEntry is a row of the transition table.
type TransitionEntry struct {
	Module    uint16
	Time      uint64
	FromState string
	ToState   string
}

// TaskRunEntry is a row of the task_run table.
type TaskRunEntry struct {
	Module uint16
	Time   uint64
	Task   string
	Run    uint32
}

// GCEntry is a row of the gc_sweep table.
type GCEntry struct {
	Time    uint64
	Cleared int
	Live    int
}

// RecordTracer writes what it observes into a DataRecorder.
type RecordTracer struct {
	lock     sync.Mutex
	recorder datarecording.DataRecorder
}

// NewRecordTracer creates the tables and returns a RecordTracer writing to
// them.
func NewRecordTracer(recorder datarecording.DataRecorder) *RecordTracer {
	recorder.CreateTable(TableModuleTick, TickEntry{})
	recorder.CreateTable(TableTransition, TransitionEntry{})
	recorder.CreateTable(TableTaskRun, TaskRunEntry{})
	recorder.CreateTable(TableGCSweep, GCEntry{})

	return &RecordTracer{recorder: recorder}
}

func (t *RecordTracer) insert(table string, entry any) {
	t.lock.Lock()
	t.recorder.InsertData(table, entry)
	t.lock.Unlock()
}

// Tick records the status at the end of a tick.
func (t *RecordTracer) Tick(m *module.Module, d module.TickDetail) {
	t.insert(TableModuleTick, TickEntry{
		Module:          uint16(m.ID()),
		Time:            d.Now,
		State:           d.Status.State.String(),
		Load:            m.Field().Get(field.Load).Float(),
		LoadGradient:    d.Status.LoadGradient.Float(),
		ThermalGradient: d.Status.ThermalGradient.Float(),
		Neighbors:       d.Status.NeighborCount,
		TaskRan:         d.TaskRan,
	})
}

// StateChange records a lifecycle transition.
func (t *RecordTracer) StateChange(m *module.Module, c module.StateChange) {
	t.insert(TableTransition, TransitionEntry{
		Module:    uint16(m.ID()),
		Time:      c.Now,
		FromState: c.From.String(),
		ToState:   c.To.String(),
	})
}

// TaskRun records a task execution.
func (t *RecordTracer) TaskRun(m *module.Module, task *module.Task, now core.TimeUs) {
	t.insert(TableTaskRun, TaskRunEntry{
		Module: uint16(m.ID()),
		Time:   now,
		Task:   task.Name,
		Run:    task.RunCount,
	})
}

// NeighborLost is not recorded. The loss shows up in the neighbor count of
// the next module_tick row.
func (t *RecordTracer) NeighborLost(*module.Module, core.ModuleID) {}

// GC records a sweep.
func (t *RecordTracer) GC(d cluster.GCDetail) {
	t.insert(TableGCSweep, GCEntry{
		Time:    d.Now,
		Cleared: d.Cleared,
		Live:    d.Live,
	})
}
