package xevent

import "time"

// Event is the contract every dispatched occurrence satisfies.
//
// Custom event types embed BaseEvent:
//
//	type SaveEvent struct {
//	    xevent.BaseEvent
//	    Dirty bool
//	}
//
// and are registered with a Resolver under a type token.
type Event interface {
	Name() string
	Arguments() []any
	IsCancelled() bool
	Cancel()
	SelectedListener() (Listener, bool)
	Started() (time.Time, bool)
	Stopped() (time.Time, bool)

	core() *BaseEvent
}

// BaseEvent holds the dispatch state of one occurrence. The zero value is
// ready to be populated by a Dispatcher.
type BaseEvent struct {
	name      string
	args      []any
	cancelled bool
	selected  *Listener
	startedAt time.Time
	stoppedAt time.Time
	started   bool
	stopped   bool
	panicErr  error
}

var _ Event = (*BaseEvent)(nil)

// Name returns the event name.
func (e *BaseEvent) Name() string { return e.name }

// Arguments returns a copy of the positional arguments.
func (e *BaseEvent) Arguments() []any {
	if len(e.args) == 0 {
		return nil
	}
	out := make([]any, len(e.args))
	copy(out, e.args)
	return out
}

// IsCancelled reports whether a listener cancelled this occurrence.
func (e *BaseEvent) IsCancelled() bool { return e.cancelled }

// Cancel stops propagation to the remaining listeners. It cannot be undone.
func (e *BaseEvent) Cancel() { e.cancelled = true }

// SelectedListener returns the listener currently being invoked. It is only
// set while the dispatch is running.
func (e *BaseEvent) SelectedListener() (Listener, bool) {
	if e.selected == nil {
		return Listener{}, false
	}
	return *e.selected, true
}

// Started returns the time dispatch began; false if no listener was registered.
func (e *BaseEvent) Started() (time.Time, bool) { return e.startedAt, e.started }

// Stopped returns the time dispatch ended; false if no listener was registered.
func (e *BaseEvent) Stopped() (time.Time, bool) { return e.stoppedAt, e.stopped }

func (e *BaseEvent) core() *BaseEvent { return e }

// fresh reports whether the event has never been dispatched.
func (e *BaseEvent) fresh() bool {
	return e.name == "" && e.args == nil && !e.cancelled && !e.started && !e.stopped && e.selected == nil
}

func (e *BaseEvent) markStarted(t time.Time) {
	e.startedAt = t
	e.started = true
}

func (e *BaseEvent) markStopped(t time.Time) {
	e.selected = nil
	e.stoppedAt = t
	e.stopped = true
}

// fail records a listener panic and cancels the occurrence.
func (e *BaseEvent) fail(err error) {
	if e.panicErr == nil {
		e.panicErr = err
	}
	e.cancelled = true
}
