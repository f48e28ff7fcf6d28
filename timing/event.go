// Package timing is a discrete-event engine in virtual microseconds. It
// drives the simulated cluster: every module tick is an event.
package timing

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
	"github.com/sarchlab/korfield/id"
)

// An Event is something going to happen in the future.
type Event interface {
	// Time returns when the event happens.
	Time() core.TimeUs

	// Handler returns the handler that handles the event.
	Handler() Handler

	// IsSecondary tells if the event is handled after all the primary events
	// of the same time.
	IsSecondary() bool
}

// HookPosBeforeEvent triggers before an event is handled.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after an event is handled.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID        string
	time      core.TimeUs
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t core.TimeUs, handler Handler) *EventBase {
	return &EventBase{
		ID:      id.Get().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() core.TimeUs {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler defines a domain for the events.
//
// An event is always bound to one handler. It can only be scheduled by that
// handler and can only modify that handler.
type Handler interface {
	Handle(e Event) error
}
