package xevent

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// DispatcherBuilder constructs Dispatcher instances.
type DispatcherBuilder struct {
	registry    *Registry
	resolver    *Resolver
	logger      *xlog.Logger
	clock       xclock.Clock
	middlewares []Middleware
	observers   []Observer

	recovery       bool
	loggingTrace   bool
	poolWorkers    int
	poolBufferSize int
	offlineCap     int
}

// NewDispatcherBuilder returns a builder with defaults: fresh registry and
// resolver, xlog/xclock defaults, logging observer attached, synchronous
// observer delivery.
func NewDispatcherBuilder() *DispatcherBuilder {
	return &DispatcherBuilder{loggingTrace: true}
}

// WithRegistry shares an existing registry.
func (bb *DispatcherBuilder) WithRegistry(r *Registry) *DispatcherBuilder {
	bb.registry = r
	return bb
}

// WithResolver shares an existing event type resolver.
func (bb *DispatcherBuilder) WithResolver(r *Resolver) *DispatcherBuilder {
	bb.resolver = r
	return bb
}

func (bb *DispatcherBuilder) WithLogger(l *xlog.Logger) *DispatcherBuilder {
	bb.logger = l
	return bb
}

func (bb *DispatcherBuilder) WithClock(c xclock.Clock) *DispatcherBuilder {
	bb.clock = c
	return bb
}

func (bb *DispatcherBuilder) WithMiddleware(mw ...Middleware) *DispatcherBuilder {
	bb.middlewares = append(bb.middlewares, mw...)
	return bb
}

func (bb *DispatcherBuilder) WithObserver(obs ...Observer) *DispatcherBuilder {
	for _, o := range obs {
		if o != nil {
			bb.observers = append(bb.observers, o)
		}
	}
	return bb
}

// WithRecovery installs RecoveryMiddleware outermost.
func (bb *DispatcherBuilder) WithRecovery() *DispatcherBuilder {
	bb.recovery = true
	return bb
}

// WithoutLoggingObserver skips the default LoggingObserver.
func (bb *DispatcherBuilder) WithoutLoggingObserver() *DispatcherBuilder {
	bb.loggingTrace = false
	return bb
}

// WithObserverPool delivers traces asynchronously on workers goroutines.
func (bb *DispatcherBuilder) WithObserverPool(workers, bufferSize int) *DispatcherBuilder {
	bb.poolWorkers = workers
	bb.poolBufferSize = bufferSize
	return bb
}

// WithOfflineCapacity bounds offline queues bound to the dispatcher; 0 is unbounded.
func (bb *DispatcherBuilder) WithOfflineCapacity(n int) *DispatcherBuilder {
	if n >= 0 {
		bb.offlineCap = n
	}
	return bb
}

// WithConfig applies a loaded Config.
func (bb *DispatcherBuilder) WithConfig(cfg Config) *DispatcherBuilder {
	if cfg.Recovery {
		bb.recovery = true
	}
	if cfg.DisableLoggingObserver {
		bb.loggingTrace = false
	}
	if cfg.ObserverWorkers > 0 {
		bb.WithObserverPool(cfg.ObserverWorkers, cfg.ObserverBuffer)
	}
	return bb.WithOfflineCapacity(cfg.OfflineCapacity)
}

// Build assembles the Dispatcher.
func (bb *DispatcherBuilder) Build() (*Dispatcher, error) {
	reg := bb.registry
	if reg == nil {
		reg = NewRegistry()
	}
	res := bb.resolver
	if res == nil {
		res = NewResolver()
	}
	clk := bb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := bb.logger
	if lg == nil {
		lg = xlog.Default()
	}

	mws := make([]Middleware, 0, len(bb.middlewares)+1)
	if bb.recovery {
		mws = append(mws, RecoveryMiddleware())
	}
	mws = append(mws, bb.middlewares...)

	d := &Dispatcher{
		registry:    reg,
		resolver:    res,
		clock:       clk,
		logger:      lg,
		middlewares: mws,
		offlineCap:  bb.offlineCap,
		metrics:     &dispatchMetrics{},
	}
	if bb.poolWorkers > 0 {
		d.observerPool = NewObserverPool(context.Background(), bb.poolWorkers, bb.poolBufferSize)
	}

	hasLogging := false
	for _, o := range bb.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLogging = true
			break
		}
	}
	if bb.loggingTrace && !hasLogging && lg != nil {
		d.AddObserver(LoggingObserver{Logger: lg})
	}
	for _, o := range bb.observers {
		d.AddObserver(o)
	}
	return d, nil
}

// New constructs a Dispatcher via the builder and returns a close func.
func New(init func(b *DispatcherBuilder)) (*Dispatcher, func() error, error) {
	b := NewDispatcherBuilder()
	if init != nil {
		init(b)
	}
	d, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return d, func() error { return d.Close(context.Background()) }, nil
}
