package timing

import (
	"sync"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
)

// ComponentBase gives a component a name and hooks.
type ComponentBase struct {
	hooking.HookableBase
	name string
}

// NewComponentBase creates a ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{name: name}
}

// Name returns the component name.
func (c *ComponentBase) Name() string {
	return c.name
}

// TickEvent asks a ticking component to tick.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a TickEvent.
func MakeTickEvent(handler Handler, t core.TimeUs) TickEvent {
	return TickEvent{EventBase: *NewEventBase(t, handler)}
}

// A Ticker updates its state once per tick. It reports whether it wants to
// tick again. A tick error stops the engine.
type Ticker interface {
	Tick() (bool, error)
}

// TickScheduler schedules tick events without scheduling the same tick
// twice.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	nextTickTime core.TimeUs
	scheduled    bool
}

// NewTickScheduler creates a scheduler for primary tick events.
func NewTickScheduler(handler Handler, engine Engine, freq Freq) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
		Freq:    freq,
	}
}

// NewSecondaryTickScheduler creates a scheduler for secondary tick events.
func NewSecondaryTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	t := NewTickScheduler(handler, engine, freq)
	t.secondary = true

	return t
}

// TickNow schedules a tick at the current tick time.
func (t *TickScheduler) TickNow() {
	t.schedule(t.Freq.ThisTick(t.Engine.Now()))
}

// TickLater schedules a tick in the cycle after now.
func (t *TickScheduler) TickLater() {
	t.schedule(t.Freq.NextTick(t.Engine.Now()))
}

func (t *TickScheduler) schedule(at core.TimeUs) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.scheduled && t.nextTickTime >= at {
		return
	}

	t.nextTickTime = at
	t.scheduled = true

	tick := MakeTickEvent(t.handler, at)
	tick.secondary = t.secondary

	t.Engine.Schedule(tick)
}

// TickingComponent is a component that updates its state every cycle. Users
// only program the Tick function.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NewTickingComponent creates a ticking component with primary ticks.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// NewSecondaryTickingComponent creates a ticking component whose ticks run
// after the primary events of the same time.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewSecondaryTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// Handle ticks the component and schedules the next tick if it made
// progress.
func (c *TickingComponent) Handle(_ Event) error {
	progress, err := c.ticker.Tick()
	if err != nil {
		return err
	}

	if progress {
		c.TickLater()
	}

	return nil
}
