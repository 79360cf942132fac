package xevent

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them via errors.Is.
var (
	ErrNotFound          = errors.New("xevent: listener not found")
	ErrClassResolution   = errors.New("xevent: event type not resolvable")
	ErrInvalidEventClass = errors.New("xevent: invalid event type")
	ErrEventTypeConflict = errors.New("xevent: event type already registered")
	ErrInvalidArgument   = errors.New("xevent: invalid argument")
	ErrInvalidEventName  = errors.New("xevent: event name must not be empty")
	ErrListenerPanic     = errors.New("xevent: listener panicked")
	ErrOfflineQueueFull  = errors.New("xevent: offline queue is full")

	ErrObserverPoolShutdownTimeout = errors.New("xevent: observer pool shutdown timeout")
)

// EventTypeConflictError reports a registration whose spelling Key is
// already held by the type registered as Owner.
type EventTypeConflictError struct {
	Token string
	Key   string
	Owner string
}

func (e *EventTypeConflictError) Error() string {
	return fmt.Sprintf("xevent: event type %q collides with %q on %q", e.Token, e.Owner, e.Key)
}

func (e *EventTypeConflictError) Is(target error) bool { return target == ErrEventTypeConflict }

// NotFoundError reports a listener ID unknown to the registry.
type NotFoundError struct {
	ID ListenerID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("xevent: listener %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ClassResolutionError reports an event type token that no spelling could resolve.
type ClassResolutionError struct {
	Token string
	Tried []string
}

func (e *ClassResolutionError) Error() string {
	return fmt.Sprintf("xevent: event type %q not registered (tried %s)", e.Token, strings.Join(e.Tried, ", "))
}

func (e *ClassResolutionError) Is(target error) bool { return target == ErrClassResolution }

// InvalidEventClassError reports a factory whose product does not satisfy the
// base event contract.
type InvalidEventClassError struct {
	Token  string
	Reason string
}

func (e *InvalidEventClassError) Error() string {
	return fmt.Sprintf("xevent: event type %q is invalid: %s", e.Token, e.Reason)
}

func (e *InvalidEventClassError) Is(target error) bool { return target == ErrInvalidEventClass }

// ArgumentError reports malformed arguments presented to Trigger or Enqueue.
// Index is -1 when the problem is not tied to a single argument.
type ArgumentError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Index < 0 {
		return "xevent: invalid argument: " + msg
	}
	return fmt.Sprintf("xevent: invalid argument %d: %s", e.Index, msg)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func (e *ArgumentError) Unwrap() error { return e.Err }

// ListenerPanicError wraps a value recovered from a panicking listener.
type ListenerPanicError struct {
	ListenerID ListenerID
	EventName  string
	Value      any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("xevent: listener %s panicked on %q: %v", e.ListenerID, e.EventName, e.Value)
}

func (e *ListenerPanicError) Is(target error) bool { return target == ErrListenerPanic }
