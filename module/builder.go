package module

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

// A Builder creates modules.
type Builder struct {
	id        core.ModuleID
	position  core.Position
	engine    *field.Engine
	topology  Topology
	heartbeat Heartbeat
	consensus Consensus
	callbacks Callbacks
}

// MakeBuilder returns a Builder with no collaborators set.
func MakeBuilder() Builder {
	return Builder{}
}

// WithID sets the module id. It must be valid for the module to publish.
func (b Builder) WithID(id core.ModuleID) Builder {
	b.id = id
	return b
}

// WithPosition sets where the module sits.
func (b Builder) WithPosition(p core.Position) Builder {
	b.position = p
	return b
}

// WithEngine sets the field engine. Modules can share one engine.
func (b Builder) WithEngine(e *field.Engine) Builder {
	b.engine = e
	return b
}

// WithTopology sets the topology collaborator.
func (b Builder) WithTopology(t Topology) Builder {
	b.topology = t
	return b
}

// WithHeartbeat sets the heartbeat collaborator.
func (b Builder) WithHeartbeat(h Heartbeat) Builder {
	b.heartbeat = h
	return b
}

// WithConsensus sets the consensus collaborator.
func (b Builder) WithConsensus(c Consensus) Builder {
	b.consensus = c
	return b
}

// WithCallbacks sets the observers.
func (b Builder) WithCallbacks(c Callbacks) Builder {
	b.callbacks = c
	return b
}

// Build creates a module in the Init state. It panics if a collaborator is
// missing.
func (b Builder) Build(name string) *Module {
	b.mustHaveCollaborators()

	engine := b.engine
	if engine == nil {
		engine = field.NewEngine()
	}

	return &Module{
		id:             b.id,
		name:           name,
		position:       b.position,
		state:          StateInit,
		engine:         engine,
		topology:       b.topology,
		heartbeat:      b.heartbeat,
		consensus:      b.consensus,
		callbacks:      b.callbacks,
		knownNeighbors: make(map[core.ModuleID]bool),
	}
}

func (b Builder) mustHaveCollaborators() {
	if b.topology == nil {
		panic("module: topology is not set")
	}

	if b.heartbeat == nil {
		panic("module: heartbeat is not set")
	}

	if b.consensus == nil {
		panic("module: consensus is not set")
	}
}
