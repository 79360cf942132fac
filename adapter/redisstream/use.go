package redisstream

import (
	"fmt"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xevent"
)

// Option configures the xevent.Dispatcher built by Use.
type Option func(*options)

type options struct {
	logger *xlog.Logger
	build  []func(*xevent.DispatcherBuilder)
}

// WithLogger injects a custom xlog logger for the dispatcher and the sink.
func WithLogger(l *xlog.Logger) Option {
	return func(o *options) {
		o.logger = l
		o.build = append(o.build, func(b *xevent.DispatcherBuilder) { b.WithLogger(l) })
	}
}

// WithClock injects a custom xclock clock.
func WithClock(c xclock.Clock) Option {
	return func(o *options) {
		o.build = append(o.build, func(b *xevent.DispatcherBuilder) { b.WithClock(c) })
	}
}

// WithMiddleware adds listener middlewares.
func WithMiddleware(mw ...xevent.Middleware) Option {
	return func(o *options) {
		o.build = append(o.build, func(b *xevent.DispatcherBuilder) { b.WithMiddleware(mw...) })
	}
}

// WithObserver attaches additional observers.
func WithObserver(obs ...xevent.Observer) Option {
	return func(o *options) {
		o.build = append(o.build, func(b *xevent.DispatcherBuilder) { b.WithObserver(obs...) })
	}
}

// WithDispatcherConfig applies an xevent.Config.
func WithDispatcherConfig(cfg xevent.Config) Option {
	return func(o *options) {
		o.build = append(o.build, func(b *xevent.DispatcherBuilder) { b.WithConfig(cfg) })
	}
}

// Build connects a Sink and returns a Dispatcher exporting traces to it
// through an asynchronous observer pool.
func Build(cfg Config, opts ...Option) (*xevent.Dispatcher, *Sink, error) {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	cfg = cfg.withDefaults()

	sink, err := NewSink(cfg, o.logger)
	if err != nil {
		return nil, nil, err
	}

	bb := xevent.NewDispatcherBuilder()
	for _, fn := range o.build {
		fn(bb)
	}
	bb.WithObserverPool(cfg.Workers, cfg.BufferSize).WithObserver(sink)

	d, err := bb.Build()
	if err != nil {
		_ = sink.Close()
		return nil, nil, err
	}
	return d, sink, nil
}

// Use builds a Dispatcher with the Redis trace sink and installs it as the
// process-wide default. It panics when Redis is unreachable. Closing the
// dispatcher closes the sink.
func Use(cfg Config, opts ...Option) *xevent.Dispatcher {
	d, _, err := Build(cfg, opts...)
	if err != nil {
		panic(fmt.Errorf("redisstream.Use: %w", err))
	}
	xevent.SetDefault(d)
	return d
}
