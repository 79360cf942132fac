package xevent

import (
	"sort"
	"sync"
)

// Registry owns listeners and the per-event registration order.
//
// The mutex only guards the maps; it is never held while a callback runs, so
// callbacks may add or remove listeners during dispatch.
type Registry struct {
	mu        sync.RWMutex
	next      ListenerID
	listeners map[ListenerID]*Listener
	order     map[string][]ListenerID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[ListenerID]*Listener),
		order:     make(map[string][]ListenerID),
	}
}

// AddListener registers cb for eventName and returns its ID.
func (r *Registry) AddListener(eventName string, cb Callback, source string) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	r.listeners[id] = &Listener{
		id:        id,
		eventName: eventName,
		callback:  cb,
		source:    source,
	}
	r.order[eventName] = append(r.order[eventName], id)
	return id
}

// HasListener reports whether eventName has at least one registered listener.
func (r *Registry) HasListener(eventName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order[eventName]) > 0
}

// RemoveListener unregisters id. Unknown IDs are ignored.
func (r *Registry) RemoveListener(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listeners[id]
	if !ok {
		return false
	}
	delete(r.listeners, id)

	ids := r.order[l.eventName]
	// Copy on write: dispatch snapshots share the old backing array.
	kept := make([]ListenerID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(r.order, l.eventName)
	} else {
		r.order[l.eventName] = kept
	}
	return true
}

// ListenerExists reports whether id is currently registered.
func (r *Registry) ListenerExists(id ListenerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.listeners[id]
	return ok
}

// GetListenerByID returns the listener for id or a *NotFoundError.
func (r *Registry) GetListenerByID(id ListenerID) (Listener, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[id]
	if !ok {
		return Listener{}, &NotFoundError{ID: id}
	}
	return *l, nil
}

// ListenerIDs returns the registration-ordered IDs for eventName.
// The returned slice must not be modified.
func (r *Registry) ListenerIDs(eventName string) []ListenerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.order[eventName]
	// Capping capacity keeps a later append from writing into our view.
	return ids[:len(ids):len(ids)]
}

// lookup resolves id without allocating an error for the common miss during dispatch.
func (r *Registry) lookup(id ListenerID) (*Listener, bool) {
	r.mu.RLock()
	l, ok := r.listeners[id]
	r.mu.RUnlock()
	return l, ok
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// EventNames returns the names with at least one listener, sorted.
func (r *Registry) EventNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.order))
	for name := range r.order {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Reset drops every listener. The ID counter keeps running so IDs handed out
// before the reset are never reissued.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.listeners = make(map[ListenerID]*Listener)
	r.order = make(map[string][]ListenerID)
	r.mu.Unlock()
}
