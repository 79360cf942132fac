package xevent

// API is the full dispatcher surface, for hosts that want to substitute or
// wrap the Dispatcher.
type API interface {
	AddListener(eventName string, cb Callback, source string) ListenerID
	RemoveListener(id ListenerID)
	HasListener(eventName string) bool
	ListenerExists(id ListenerID) bool
	GetListenerByID(id ListenerID) (Listener, error)
	Trigger(eventName string, args []any, opts ...TriggerOption) (Event, error)
	Metrics() Metrics
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
}

var _ API = (*Dispatcher)(nil)
