package module

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
)

// HookPosTick triggers at the end of every tick. The detail is a TickDetail.
var HookPosTick = &hooking.HookPos{Name: "Tick"}

// HookPosStateChange triggers on every lifecycle transition. The detail is a
// StateChange.
var HookPosStateChange = &hooking.HookPos{Name: "StateChange"}

// HookPosTaskRun triggers after a task runs. The item is the *Task.
var HookPosTaskRun = &hooking.HookPos{Name: "TaskRun"}

// HookPosNeighborLost triggers when a dead neighbor is dropped. The detail is
// the neighbor's core.ModuleID.
var HookPosNeighborLost = &hooking.HookPos{Name: "NeighborLost"}

// HookPosFieldPublished triggers after the module publishes its field. The
// detail is the published field.Field.
var HookPosFieldPublished = &hooking.HookPos{Name: "FieldPublished"}

// TickDetail is the detail of HookPosTick.
type TickDetail struct {
	Now      core.TimeUs
	TaskRan  bool
	Status   Status
	Topology bool
}

// StateChange is the detail of HookPosStateChange.
type StateChange struct {
	From State
	To   State
	Now  core.TimeUs
}

func (m *Module) invokeHook(pos *hooking.HookPos, item, detail any) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
