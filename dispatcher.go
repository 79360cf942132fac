package xevent

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// NamedArgs is a keyed argument collection. Trigger rejects it: listener
// arguments are positional only.
type NamedArgs map[string]any

// Dispatcher runs synchronous publish/subscribe over a Registry.
type Dispatcher struct {
	registry     *Registry
	resolver     *Resolver
	clock        xclock.Clock
	logger       *xlog.Logger
	middlewares  []Middleware
	observerPool *ObserverPool
	observersMu  sync.RWMutex
	observers    []Observer
	offlineCap   int
	metrics      *dispatchMetrics
	closeOnce    sync.Once
}

type dispatchMetrics struct {
	triggered   atomic.Uint64
	noListeners atomic.Uint64
	invocations atomic.Uint64
	cancelled   atomic.Uint64
	panics      atomic.Uint64
	queued      atomic.Uint64
	flushed     atomic.Uint64
}

// Metrics is a snapshot of dispatcher counters.
type Metrics struct {
	Triggered      uint64
	NoListeners    uint64
	Invocations    uint64
	Cancelled      uint64
	Panics         uint64
	Queued         uint64
	Flushed        uint64
	TracesDropped  uint64
	ListenersCount int
}

// TriggerOption customizes a single Trigger call.
type TriggerOption func(*triggerConfig)

type triggerConfig struct {
	eventType string
}

// WithEventType dispatches using the event type registered under token.
func WithEventType(token string) TriggerOption {
	return func(c *triggerConfig) { c.eventType = token }
}

// Registry returns the listener registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Resolver returns the event type resolver.
func (d *Dispatcher) Resolver() *Resolver { return d.resolver }

// Logger returns the configured logger.
func (d *Dispatcher) Logger() *xlog.Logger { return d.logger }

// AddListener registers cb for eventName and returns its ID.
func (d *Dispatcher) AddListener(eventName string, cb Callback, source string) ListenerID {
	id := d.registry.AddListener(eventName, cb, source)
	d.notify(Trace{Type: ListenerAdded, EventName: eventName, ListenerID: id, Source: source})
	return id
}

// RemoveListener unregisters id; unknown IDs are ignored.
func (d *Dispatcher) RemoveListener(id ListenerID) {
	l, ok := d.registry.lookup(id)
	if !d.registry.RemoveListener(id) || !ok {
		return
	}
	d.notify(Trace{Type: ListenerRemoved, EventName: l.eventName, ListenerID: id, Source: l.source})
}

// HasListener reports whether eventName has a registered listener.
func (d *Dispatcher) HasListener(eventName string) bool { return d.registry.HasListener(eventName) }

// ListenerExists reports whether id is registered.
func (d *Dispatcher) ListenerExists(id ListenerID) bool { return d.registry.ListenerExists(id) }

// GetListenerByID returns the listener for id or a *NotFoundError.
func (d *Dispatcher) GetListenerByID(id ListenerID) (Listener, error) {
	return d.registry.GetListenerByID(id)
}

// Trigger publishes one occurrence of eventName and runs its listeners in
// registration order until one cancels. Listeners may call Trigger again;
// the nested dispatch completes before the outer one continues.
//
// The returned event has no Started/Stopped markers when nothing listened.
func (d *Dispatcher) Trigger(eventName string, args []any, opts ...TriggerOption) (Event, error) {
	var cfg triggerConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	// Everything that can fail happens before the first listener runs.
	ev, err := d.resolver.New(cfg.eventType)
	if err != nil {
		d.notify(Trace{Type: DispatchFailed, EventName: eventName, Err: err})
		return nil, err
	}
	norm, err := normalizeArgs(eventName, args)
	if err != nil {
		d.notify(Trace{Type: DispatchFailed, EventName: eventName, Err: err})
		return nil, err
	}

	c := ev.core()
	c.name = eventName
	c.args = norm
	d.metrics.triggered.Add(1)

	ids := d.registry.ListenerIDs(eventName)
	if len(ids) == 0 {
		d.metrics.noListeners.Add(1)
		return ev, nil
	}

	start := d.clock.Now()
	c.markStarted(start)
	d.notify(Trace{Type: DispatchStart, EventName: eventName, Count: len(ids)})

	// A panicking listener still leaves the event stopped with no selected listener.
	defer func() {
		if !c.stopped {
			c.markStopped(d.clock.Now())
		}
	}()

	invoked := 0
	for _, id := range ids {
		l, ok := d.registry.lookup(id)
		if !ok || l.callback == nil {
			// Removed after the snapshot was taken.
			continue
		}
		c.selected = l
		Chain(*l, l.callback, d.middlewares...)(ev, norm...)
		invoked++
		d.metrics.invocations.Add(1)
		d.notify(Trace{Type: ListenerInvoked, EventName: eventName, ListenerID: l.id, Source: l.source})

		if c.IsCancelled() {
			d.metrics.cancelled.Add(1)
			d.notify(Trace{Type: DispatchCanceled, EventName: eventName, ListenerID: l.id, Source: l.source})
			break
		}
	}

	c.markStopped(d.clock.Now())
	d.notify(Trace{Type: DispatchDone, EventName: eventName, Count: invoked, Duration: d.clock.Since(start)})

	if c.panicErr != nil {
		d.metrics.panics.Add(1)
		d.notify(Trace{Type: DispatchFailed, EventName: eventName, Err: c.panicErr})
		return ev, c.panicErr
	}
	return ev, nil
}

// normalizeArgs copies args into a fresh positional slice, rejecting keyed collections.
func normalizeArgs(eventName string, args []any) ([]any, error) {
	if eventName == "" {
		return nil, &ArgumentError{Index: -1, Err: ErrInvalidEventName}
	}
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		if _, keyed := a.(NamedArgs); keyed {
			return nil, &ArgumentError{Index: i, Reason: "named arguments are not supported; pass values positionally"}
		}
		out[i] = a
	}
	return out, nil
}

// Metrics returns current dispatcher counters.
func (d *Dispatcher) Metrics() Metrics {
	m := Metrics{
		Triggered:      d.metrics.triggered.Load(),
		NoListeners:    d.metrics.noListeners.Load(),
		Invocations:    d.metrics.invocations.Load(),
		Cancelled:      d.metrics.cancelled.Load(),
		Panics:         d.metrics.panics.Load(),
		Queued:         d.metrics.queued.Load(),
		Flushed:        d.metrics.flushed.Load(),
		ListenersCount: d.registry.Len(),
	}
	if d.observerPool != nil {
		m.TracesDropped = d.observerPool.Stats().Dropped
	}
	return m
}

// AddObserver registers an observer.
func (d *Dispatcher) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	d.observersMu.Lock()
	d.observers = append(d.observers, obs)
	d.observersMu.Unlock()
}

// RemoveObserver removes obs if present. Observers of non-comparable
// types (such as ObserverFunc) cannot be removed.
func (d *Dispatcher) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	d.observersMu.Lock()
	defer d.observersMu.Unlock()
	if !reflect.TypeOf(obs).Comparable() {
		return
	}
	for i, o := range d.observers {
		if reflect.TypeOf(o) == reflect.TypeOf(obs) && o == obs {
			d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
			break
		}
	}
}

// Close drains the observer pool, if any, then closes observers that
// implement Close() error. It is safe to call more than once.
// Listeners stay registered.
func (d *Dispatcher) Close(ctx context.Context) error {
	var errs []error
	d.closeOnce.Do(func() {
		if d.observerPool != nil {
			timeout := 5 * time.Second
			if dl, ok := ctx.Deadline(); ok {
				timeout = time.Until(dl)
			}
			if err := d.observerPool.Close(timeout); err != nil {
				d.logger.Warn().Err(err).Msg("xevent: observer pool shutdown timeout")
				errs = append(errs, err)
			}
		}

		d.observersMu.Lock()
		observers := d.observers
		d.observers = nil
		d.observersMu.Unlock()
		for _, o := range observers {
			if c, ok := o.(interface{ Close() error }); ok {
				if err := c.Close(); err != nil {
					d.logger.Warn().Err(err).Msg("xevent: observer close failed")
					errs = append(errs, err)
				}
			}
		}
	})
	return errors.Join(errs...)
}

// notify hands t to observers, asynchronously when a pool is configured.
func (d *Dispatcher) notify(t Trace) {
	d.observersMu.RLock()
	if len(d.observers) == 0 {
		d.observersMu.RUnlock()
		return
	}
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.observersMu.RUnlock()

	if t.At.IsZero() {
		t.At = d.clock.Now()
	}
	if d.observerPool != nil {
		d.observerPool.Notify(t, observers)
		return
	}
	deliver(t, observers)
}
