package timing

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
)

// A ParallelEngine handles all the events of the same time concurrently.
// Primary events of a time run first, then the secondary events of that
// time. Handlers of the same round must not touch each other's state.
type ParallelEngine struct {
	hooking.HookableBase

	nowLock sync.RWMutex
	now     core.TimeUs

	pauseLock    sync.Mutex
	isPaused     bool
	isPausedLock sync.Mutex

	queue          EventQueue
	secondaryQueue EventQueue
	maxGoroutines  int
}

// NewParallelEngine creates a ParallelEngine that uses up to GOMAXPROCS
// goroutines per round.
func NewParallelEngine() *ParallelEngine {
	return &ParallelEngine{
		queue:          NewEventQueue(),
		secondaryQueue: NewEventQueue(),
		maxGoroutines:  runtime.GOMAXPROCS(0),
	}
}

// WithMaxGoroutines limits the number of handlers running at the same time.
func (e *ParallelEngine) WithMaxGoroutines(n int) *ParallelEngine {
	e.maxGoroutines = n
	return e
}

func (e *ParallelEngine) readNow() core.TimeUs {
	e.nowLock.RLock()
	defer e.nowLock.RUnlock()

	return e.now
}

func (e *ParallelEngine) writeNow(t core.TimeUs) {
	e.nowLock.Lock()
	e.now = t
	e.nowLock.Unlock()
}

// Now returns the time of the round being handled.
func (e *ParallelEngine) Now() core.TimeUs {
	return e.readNow()
}

// Schedule registers an event to happen in the future. It is safe to call
// from handlers.
func (e *ParallelEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf("scheduling an event at %d, earlier than now %d",
			evt.Time(), now)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

// Run handles events round by round.
func (e *ParallelEngine) Run(ctx context.Context, deadline core.TimeUs) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		round, ok := e.nextRound(deadline)
		if !ok {
			return nil
		}

		if err := e.runRound(ctx, round); err != nil {
			return err
		}
	}
}

func (e *ParallelEngine) nextRound(deadline core.TimeUs) ([]Event, bool) {
	queue, t, ok := e.earliestQueue()
	if !ok || t > deadline {
		return nil, false
	}

	var round []Event
	for queue.Len() > 0 && queue.Peek().Time() == t {
		round = append(round, queue.Pop())
	}

	e.writeNow(t)

	return round, true
}

func (e *ParallelEngine) earliestQueue() (EventQueue, core.TimeUs, bool) {
	hasPrimary := e.queue.Len() > 0
	hasSecondary := e.secondaryQueue.Len() > 0

	switch {
	case hasPrimary && hasSecondary:
		p := e.queue.Peek().Time()
		s := e.secondaryQueue.Peek().Time()
		if p <= s {
			return e.queue, p, true
		}

		return e.secondaryQueue, s, true
	case hasPrimary:
		return e.queue, e.queue.Peek().Time(), true
	case hasSecondary:
		return e.secondaryQueue, e.secondaryQueue.Peek().Time(), true
	default:
		return nil, 0, false
	}
}

func (e *ParallelEngine) runRound(ctx context.Context, round []Event) error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.maxGoroutines)

	for _, evt := range round {
		g.Go(func() error {
			return e.handle(evt)
		})
	}

	return g.Wait()
}

func (e *ParallelEngine) handle(evt Event) error {
	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	if err := evt.Handler().Handle(evt); err != nil {
		return fmt.Errorf("event at %dus: %w", evt.Time(), err)
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return nil
}

// Pause prevents the engine from starting another round.
func (e *ParallelEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue lets the engine start rounds again.
func (e *ParallelEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}
