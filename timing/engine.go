package timing

import (
	"context"
	"math"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
)

// Forever is a deadline that is never reached.
const Forever core.TimeUs = math.MaxUint64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() core.TimeUs
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine keeps the discrete event simulation running.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run handles events until none is left, the next event is later than
	// deadline, the context is done, or a handler fails. The first handler
	// error is returned.
	Run(ctx context.Context, deadline core.TimeUs) error

	// Pause stops the engine from handling more events until Continue is
	// called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
