package xevent

import "strconv"

// ListenerID identifies a registered listener. IDs start at 1 and are never reused.
type ListenerID uint64

func (id ListenerID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Callback is invoked with the event and its positional arguments.
// Call e.Cancel() to stop the remaining listeners.
type Callback func(e Event, args ...any)

// Listener binds a callback to an event name. It is immutable once registered.
type Listener struct {
	id        ListenerID
	eventName string
	callback  Callback
	source    string
}

func (l Listener) ID() ListenerID     { return l.id }
func (l Listener) EventName() string  { return l.eventName }
func (l Listener) Callback() Callback { return l.callback }

// Source is a free-form label for diagnostics (e.g. the registering component).
func (l Listener) Source() string { return l.source }
