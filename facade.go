package xevent

import (
	"context"
	"fmt"
	"sync"
)

var (
	defaultDispatcher   *Dispatcher
	defaultDispatcherMu sync.Mutex
)

// Default returns the process-wide Dispatcher, building it on first use.
func Default() *Dispatcher {
	defaultDispatcherMu.Lock()
	defer defaultDispatcherMu.Unlock()

	if defaultDispatcher != nil {
		return defaultDispatcher
	}
	d, err := NewDispatcherBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("xevent: failed to initialize default dispatcher: %v", err))
	}
	defaultDispatcher = d
	return defaultDispatcher
}

// SetDefault replaces the process-wide Dispatcher. The offline singleton is
// dropped so it rebinds to d on next use.
func SetDefault(d *Dispatcher) {
	if d == nil {
		panic("xevent: SetDefault called with nil Dispatcher")
	}
	defaultDispatcherMu.Lock()
	defaultDispatcher = d
	defaultDispatcherMu.Unlock()
	ResetOffline()
}

// ResetDefault tears down the process-wide Dispatcher and offline queue.
// Intended for test isolation.
func ResetDefault() {
	defaultDispatcherMu.Lock()
	d := defaultDispatcher
	defaultDispatcher = nil
	defaultDispatcherMu.Unlock()
	ResetOffline()
	if d != nil {
		_ = d.Close(context.Background())
	}
}

// AddListener registers on the default dispatcher.
func AddListener(eventName string, cb Callback, source string) ListenerID {
	return Default().AddListener(eventName, cb, source)
}

// RemoveListener unregisters from the default dispatcher.
func RemoveListener(id ListenerID) { Default().RemoveListener(id) }

// HasListener queries the default dispatcher.
func HasListener(eventName string) bool { return Default().HasListener(eventName) }

// ListenerExists queries the default dispatcher.
func ListenerExists(id ListenerID) bool { return Default().ListenerExists(id) }

// GetListenerByID queries the default dispatcher.
func GetListenerByID(id ListenerID) (Listener, error) { return Default().GetListenerByID(id) }

// Trigger publishes on the default dispatcher.
func Trigger(eventName string, args []any, opts ...TriggerOption) (Event, error) {
	return Default().Trigger(eventName, args, opts...)
}

// Enqueue queues an offline event on the process-wide offline queue.
func Enqueue(eventName string, args []any, opts ...TriggerOption) error {
	return Offline().Enqueue(eventName, args, opts...)
}

// Flush replays the process-wide offline queue.
func Flush() (int, error) { return Offline().Flush() }
