package xevent

import (
	"errors"
	"strings"
	"sync"
)

// BaseEventType is the token under which the plain BaseEvent is registered.
const BaseEventType = "event"

// EventFactory returns a fresh, never-dispatched event value.
type EventFactory func() Event

// Resolver maps event type tokens to factories.
// Tokens are matched verbatim first, then by canonical spelling, so
// "App\\Events\\Saved", "app.events.saved" and "/app/events/Saved" all resolve
// to the same registration.
type Resolver struct {
	mu        sync.RWMutex
	factories map[string]EventFactory
	owners    map[string]string // lookup key -> registering token
}

// NewResolver returns a resolver with the base event pre-registered.
func NewResolver() *Resolver {
	r := &Resolver{
		factories: make(map[string]EventFactory),
		owners:    make(map[string]string),
	}
	_ = r.Register(BaseEventType, func() Event { return &BaseEvent{} })
	return r
}

// Register validates factory and stores it under token and every alias.
// Re-registering a token replaces its factory. A name whose verbatim or
// canonical spelling is already held by another token, or by the base
// event, is rejected with an *EventTypeConflictError and nothing is stored.
func (r *Resolver) Register(token string, factory EventFactory, aliases ...string) error {
	if token == "" {
		return errors.New("xevent: event type token must not be empty")
	}
	if factory == nil {
		return errors.New("xevent: event factory must not be nil")
	}
	if _, err := instantiate(token, factory); err != nil {
		return err
	}

	var keys []string
	for _, name := range append([]string{token}, aliases...) {
		if name != "" {
			keys = append(keys, spellings(name)...)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		owner, taken := r.owners[k]
		if !taken {
			continue
		}
		if owner != token || owner == BaseEventType {
			return &EventTypeConflictError{Token: token, Key: k, Owner: owner}
		}
	}
	for _, k := range keys {
		r.factories[k] = factory
		r.owners[k] = token
	}
	return nil
}

// Resolve returns the factory for token. An empty token selects the base event.
func (r *Resolver) Resolve(token string) (EventFactory, error) {
	if token == "" {
		token = BaseEventType
	}
	tried := spellings(token)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range tried {
		if f, ok := r.factories[s]; ok {
			return f, nil
		}
	}
	return nil, &ClassResolutionError{Token: token, Tried: tried}
}

// New resolves token and builds a validated event.
func (r *Resolver) New(token string) (Event, error) {
	f, err := r.Resolve(token)
	if err != nil {
		return nil, err
	}
	return instantiate(token, f)
}

// Registered reports whether token resolves.
func (r *Resolver) Registered(token string) bool {
	_, err := r.Resolve(token)
	return err == nil
}

// instantiate runs factory and checks the base event contract.
func instantiate(token string, factory EventFactory) (ev Event, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ev, err = nil, &InvalidEventClassError{Token: token, Reason: "factory panicked"}
		}
	}()
	ev = factory()
	if ev == nil {
		return nil, &InvalidEventClassError{Token: token, Reason: "factory returned nil"}
	}
	c := ev.core()
	if c == nil {
		return nil, &InvalidEventClassError{Token: token, Reason: "event has no base state"}
	}
	if !c.fresh() {
		return nil, &InvalidEventClassError{Token: token, Reason: "factory returned an event that was already dispatched"}
	}
	return ev, nil
}

func spellings(token string) []string {
	c := canonicalToken(token)
	if c == token {
		return []string{token}
	}
	return []string{token, c}
}

// canonicalToken folds separator and case drift: leading separators are
// dropped, `\` and `/` become `.`, letters are lower-cased.
func canonicalToken(token string) string {
	t := strings.TrimLeft(token, `\/.`)
	t = strings.NewReplacer(`\`, ".", "/", ".").Replace(t)
	return strings.ToLower(t)
}
