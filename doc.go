// Package xevent is an in-process, synchronous publish/subscribe event bus.
//
// Listeners register a callback for an event name and receive a stable
// ListenerID. Trigger runs the listeners of one name in registration order
// on the caller's goroutine and stops as soon as one of them cancels the
// event. Listeners may trigger further events; a nested dispatch finishes
// before the outer one resumes.
//
//	d, _ := xevent.NewDispatcherBuilder().WithLogger(logger).Build()
//	d.AddListener("save", func(e xevent.Event, args ...any) {
//	    if args[0] == "" {
//	        e.Cancel()
//	    }
//	}, "validator")
//	ev, err := d.Trigger("save", []any{path})
//
// Event types are chosen per call by token (WithEventType) from a Resolver.
// Custom types embed BaseEvent.
//
// Events raised before their subscribers exist go to an OfflineQueue and are
// replayed, once each, by an explicit Flush.
//
// Default, Offline and the package-level functions operate on a process-wide
// Dispatcher; ResetDefault tears it down for test isolation.
package xevent
