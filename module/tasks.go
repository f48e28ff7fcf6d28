package module

import (
	"fmt"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
)

// AddTask registers a task. New tasks are Ready. A period of 0 makes the task
// one-shot.
func (m *Module) AddTask(
	name string,
	fn TaskFunc,
	priority uint8,
	period core.TimeUs,
) (core.TaskID, error) {
	if len(m.tasks) >= core.MaxTasksPerModule {
		return 0, fmt.Errorf("module %s add task %q: %w",
			m.name, name, core.ErrNoMemory)
	}

	if fn == nil {
		return 0, fmt.Errorf("task %q has no function: %w",
			name, core.ErrInvalidArg)
	}

	t := &Task{
		ID:       core.TaskID(len(m.tasks)),
		Name:     name,
		Func:     fn,
		State:    TaskReady,
		Priority: priority,
		Period:   period,
	}
	m.tasks = append(m.tasks, t)

	return t.ID, nil
}

// Task returns a registered task.
func (m *Module) Task(id core.TaskID) (*Task, error) {
	if int(id) >= len(m.tasks) {
		return nil, fmt.Errorf("task %d: %w", id, core.ErrNotFound)
	}

	return m.tasks[id], nil
}

// Tasks returns every registered task in registration order.
func (m *Module) Tasks() []*Task {
	return m.tasks
}

// ActiveTask returns the task that is currently running, if any.
func (m *Module) ActiveTask() *Task {
	return m.activeTask
}

// TaskReady marks a task Ready.
func (m *Module) TaskReady(id core.TaskID) error {
	t, err := m.Task(id)
	if err != nil {
		return err
	}

	t.State = TaskReady

	return nil
}

// TaskBlock marks a task Blocked.
func (m *Module) TaskBlock(id core.TaskID) error {
	t, err := m.Task(id)
	if err != nil {
		return err
	}

	t.State = TaskBlocked

	return nil
}

// SelectTask returns the task to run in this period, or nil. Nothing is
// selected while the module is much more loaded than its neighbors.
// Otherwise the Ready task with the lowest priority number wins and ties go
// to the task registered first.
func (m *Module) SelectTask() *Task {
	if m.Backpressured() {
		return nil
	}

	boost := m.priorityBoost(m.gradients[field.Load])

	var best *Task
	bestPriority := 0

	for _, t := range m.tasks {
		if t.State != TaskReady {
			continue
		}

		p := effectivePriority(t.Priority, boost)
		if best == nil || p < bestPriority {
			best = t
			bestPriority = p
		}
	}

	return best
}

// Backpressured reports whether the module is so much more loaded than its
// neighbors that it takes no work.
func (m *Module) Backpressured() bool {
	return m.gradients[field.Load] < idleThreshold
}

// priorityBoost is the gradient-driven adjustment to task priority. It is
// zero at every gradient.
// TODO: decide whether a positive load gradient should promote tasks.
func (m *Module) priorityBoost(fixed.Fixed) int {
	return 0
}

func effectivePriority(priority uint8, boost int) int {
	p := int(priority) + boost

	return max(p, 0)
}

// runTask runs t with the tick time as both start and end, so the runtime it
// accumulates is zero unless the task itself measures time.
func (m *Module) runTask(t *Task, now core.TimeUs) {
	t.State = TaskRunning
	m.activeTask = t

	ctx := TaskContext{
		Module: m,
		Task:   t,
		Start:  now,
		End:    now,
	}
	t.Func(ctx)

	t.TotalRuntime += ctx.Elapsed()
	t.RunCount++

	if t.State == TaskRunning {
		if t.IsPeriodic() {
			t.NextRun = now + t.Period
			t.State = TaskReady
		} else {
			t.State = TaskIdle
		}
	}

	m.activeTask = nil

	m.invokeHook(HookPosTaskRun, t, now)
}
