package module

import (
	"github.com/sarchlab/korfield/core"
)

// TaskState is the run state of a module-local task.
type TaskState int

// All the task states.
const (
	TaskIdle TaskState = iota
	TaskReady
	TaskRunning
	TaskBlocked
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "Idle"
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskBlocked:
		return "Blocked"
	default:
		return "Invalid"
	}
}

// TaskContext is what a task sees when it runs.
type TaskContext struct {
	Module *Module
	Task   *Task
	Start  core.TimeUs
	End    core.TimeUs
}

// Elapsed returns End - Start.
func (c TaskContext) Elapsed() core.TimeUs {
	return core.SaturatingSub(c.End, c.Start)
}

// TaskFunc is the body of a task. State the task needs is captured by the
// closure.
type TaskFunc func(ctx TaskContext)

// A Task is a unit of work owned by one module.
type Task struct {
	ID           core.TaskID
	Name         string
	Func         TaskFunc
	State        TaskState
	Priority     uint8
	Period       core.TimeUs
	NextRun      core.TimeUs
	RunCount     uint32
	TotalRuntime core.TimeUs
}

// IsPeriodic reports whether the task re-arms after running.
func (t *Task) IsPeriodic() bool {
	return t.Period > 0
}
