// Package module implements the coordination and scheduling loop of one
// module. A module publishes its own field, samples its neighbors, and uses
// the resulting gradient to choose work and to move through its lifecycle.
//
// A Module carries no locks. Exactly one goroutine may drive it at a time.
package module

import (
	"fmt"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/fixed"
	"github.com/sarchlab/korfield/hooking"
)

// idleThreshold is the load gradient below which the module stops taking
// work.
var idleThreshold = fixed.FromFloat(-0.2)

// quorum is the neighbor count at which a module considers itself well
// connected.
const quorum = core.KNeighbors / 2

// Module is one participant of the cluster.
type Module struct {
	hooking.HookableBase

	id       core.ModuleID
	name     string
	position core.Position
	state    State

	myField    field.Field
	aggregate  field.Field
	gradients  field.Vector
	engine     *field.Engine
	tasks      []*Task
	activeTask *Task

	topology  Topology
	heartbeat Heartbeat
	consensus Consensus
	callbacks Callbacks

	pendingBallots []core.BallotID
	knownNeighbors map[core.ModuleID]bool

	lastTick        core.TimeUs
	ticksTotal      uint32
	fieldUpdates    uint32
	topologyChanges uint32
	consensusRounds uint32
}

// ID returns the module id.
func (m *Module) ID() core.ModuleID {
	return m.id
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Position returns where the module sits in the cluster.
func (m *Module) Position() core.Position {
	return m.position
}

// State returns the lifecycle state.
func (m *Module) State() State {
	return m.state
}

// Field returns the module's own field as last set.
func (m *Module) Field() field.Field {
	return m.myField
}

// Aggregate returns the neighbor aggregate computed in the last tick.
func (m *Module) Aggregate() field.Field {
	return m.aggregate
}

// LastTick returns the time of the latest tick.
func (m *Module) LastTick() core.TimeUs {
	return m.lastTick
}

// SetCallbacks replaces the observers.
func (m *Module) SetCallbacks(callbacks Callbacks) {
	m.callbacks = callbacks
}

// Start moves the module from Init to Discovering.
func (m *Module) Start() error {
	if m.state != StateInit {
		return fmt.Errorf("start module %d in state %s: %w",
			m.id, m.state, core.ErrInvalidArg)
	}

	m.setState(StateDiscovering)

	return nil
}

// Stop moves the module to Shutdown from any state. A stopped module no
// longer ticks.
func (m *Module) Stop() {
	m.setState(StateShutdown)
}

// Tick runs one coordination period. It runs in every state, Shutdown
// included, and always publishes the module's field.
func (m *Module) Tick(region *field.Region, now core.TimeUs) error {
	m.lastTick = now
	m.ticksTotal++

	m.dropDeadNeighbors(now)

	m.aggregate = m.engine.SampleNeighbors(region, m.topology.Neighbors(), now)
	m.gradients = m.engine.GradientAll(m.myField, m.aggregate)

	m.consensus.Tick(now)
	m.collectBallots()

	topologyChanged := m.topology.Tick(now)
	if topologyChanged {
		m.topologyChanges++
		m.detectNewNeighbors()
	}

	taskRan := false
	if task := m.SelectTask(); task != nil {
		m.runTask(task, now)
		taskRan = true
	}

	err := m.engine.Publish(region, m.id, m.myField, now)
	if err != nil {
		return fmt.Errorf("module %s tick: %w", m.name, err)
	}

	m.fieldUpdates++
	m.invokeHook(HookPosFieldPublished, m, m.myField)

	m.updateStateFromTopology()

	if m.NumHooks() > 0 {
		m.invokeHook(HookPosTick, m, TickDetail{
			Now:      now,
			TaskRan:  taskRan,
			Status:   m.Status(),
			Topology: topologyChanged,
		})
	}

	return nil
}

func (m *Module) dropDeadNeighbors(now core.TimeUs) {
	if m.heartbeat.Tick(now) == 0 {
		return
	}

	var dead []core.ModuleID
	for _, n := range m.topology.Neighbors() {
		if m.heartbeat.Health(n.ID) == core.HealthDead {
			dead = append(dead, n.ID)
		}
	}

	for _, id := range dead {
		// A neighbor the topology no longer holds is still lost.
		_ = m.topology.OnNeighborLost(id)

		m.topologyChanges++
		delete(m.knownNeighbors, id)

		m.invokeHook(HookPosNeighborLost, m, id)
		if m.callbacks.NeighborLost != nil {
			m.callbacks.NeighborLost(m, id)
		}
	}
}

func (m *Module) detectNewNeighbors() {
	for _, n := range m.topology.Neighbors() {
		if m.knownNeighbors[n.ID] {
			continue
		}

		m.knownNeighbors[n.ID] = true
		if m.callbacks.NeighborFound != nil {
			m.callbacks.NeighborFound(m, n.ID)
		}
	}
}

func (m *Module) collectBallots() {
	remaining := m.pendingBallots[:0]

	for _, ballot := range m.pendingBallots {
		result := m.consensus.Result(ballot)
		if result == core.VotePending {
			remaining = append(remaining, ballot)
			continue
		}

		if m.callbacks.ConsensusComplete != nil {
			m.callbacks.ConsensusComplete(m, ballot, result)
		}
	}

	m.pendingBallots = remaining
}

func (m *Module) setState(s State) {
	prev := m.state
	if prev == s {
		return
	}

	m.state = s

	m.invokeHook(HookPosStateChange, m, StateChange{
		From: prev,
		To:   s,
		Now:  m.lastTick,
	})

	if m.callbacks.StateChanged != nil {
		m.callbacks.StateChanged(m, prev)
	}
}

func (m *Module) updateStateFromTopology() {
	k := m.topology.NeighborCount()

	switch {
	case m.state == StateDiscovering && k >= quorum:
		m.setState(StateActive)
	case m.state == StateActive && k == 0:
		m.setState(StateIsolated)
	case m.state == StateActive && k < quorum:
		m.setState(StateDegraded)
	case m.state == StateDegraded && k >= quorum:
		m.setState(StateActive)
	case m.state == StateIsolated && k > 0:
		m.setState(StateReforming)
	case m.state == StateReforming && k >= quorum:
		m.setState(StateActive)
	}
}

// UpdateField sets the load, thermal and power components of the module's
// own field. The change is published on the next tick.
func (m *Module) UpdateField(load, thermal, power fixed.Fixed) {
	m.myField.Set(field.Load, load)
	m.myField.Set(field.Thermal, thermal)
	m.myField.Set(field.Power, power)

	m.fieldChanged()
}

// SetComponent sets a single component of the module's own field.
func (m *Module) SetComponent(c field.Component, v fixed.Fixed) error {
	if c < 0 || int(c) >= core.FieldCount {
		return fmt.Errorf("component %d: %w", c, core.ErrInvalidArg)
	}

	m.myField.Set(c, v)
	m.fieldChanged()

	return nil
}

func (m *Module) fieldChanged() {
	if m.callbacks.FieldChanged != nil {
		m.callbacks.FieldChanged(m, m.myField)
	}
}

// Gradient returns the gradient of one component from the last tick.
func (m *Module) Gradient(c field.Component) fixed.Fixed {
	return m.gradients[c]
}

// Gradients returns every gradient from the last tick.
func (m *Module) Gradients() field.Vector {
	return m.gradients
}

// NeighborCount returns the number of live neighbors.
func (m *Module) NeighborCount() int {
	return m.topology.NeighborCount()
}

// Neighbors returns the current neighbors.
func (m *Module) Neighbors() []field.Neighbor {
	return m.topology.Neighbors()
}
