package xevent

// Middleware wraps a listener invocation. It receives the listener being
// called so wrappers can report on it.
type Middleware func(l Listener, next Callback) Callback

// RecoveryMiddleware turns a listener panic into a cancelled event. Trigger
// then returns the event together with a *ListenerPanicError.
func RecoveryMiddleware() Middleware {
	return func(l Listener, next Callback) Callback {
		return func(e Event, args ...any) {
			defer func() {
				if r := recover(); r != nil {
					e.core().fail(&ListenerPanicError{
						ListenerID: l.ID(),
						EventName:  e.Name(),
						Value:      r,
					})
				}
			}()
			next(e, args...)
		}
	}
}

// Chain composes middlewares around cb; the first middleware is outermost.
func Chain(l Listener, cb Callback, mws ...Middleware) Callback {
	wrapped := cb
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](l, wrapped)
	}
	return wrapped
}
