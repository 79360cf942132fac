package xevent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ObserverPool delivers traces to observers on background goroutines so slow
// observers never hold up a dispatch. When the buffer is full the trace is dropped.
type ObserverPool struct {
	traceCh   chan pooledTrace
	workers   int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	dropped   atomic.Uint64
	processed atomic.Uint64
}

type pooledTrace struct {
	trace     Trace
	observers []Observer
}

// PoolStats returns telemetry about the observer pool.
type PoolStats struct {
	Dropped    uint64
	Processed  uint64
	Queued     int
	Workers    int
	BufferSize int
}

// NewObserverPool starts workers goroutines reading from a buffer of bufferSize.
func NewObserverPool(ctx context.Context, workers, bufferSize int) *ObserverPool {
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 1 {
		bufferSize = 1024
	}

	poolCtx, cancel := context.WithCancel(ctx)
	op := &ObserverPool{
		traceCh: make(chan pooledTrace, bufferSize),
		workers: workers,
		ctx:     poolCtx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		op.wg.Add(1)
		go op.worker()
	}
	return op
}

// Notify queues t for the given observers without blocking.
func (op *ObserverPool) Notify(t Trace, observers []Observer) {
	if len(observers) == 0 || op.closed.Load() {
		return
	}
	select {
	case op.traceCh <- pooledTrace{trace: t, observers: observers}:
	default:
		op.dropped.Add(1)
	}
}

func (op *ObserverPool) worker() {
	defer op.wg.Done()
	for {
		select {
		case pt := <-op.traceCh:
			op.handle(pt)
		case <-op.ctx.Done():
			op.drain()
			return
		}
	}
}

// drain delivers whatever is still buffered once the pool is cancelled.
func (op *ObserverPool) drain() {
	for {
		select {
		case pt := <-op.traceCh:
			op.handle(pt)
		default:
			return
		}
	}
}

func (op *ObserverPool) handle(pt pooledTrace) {
	deliver(pt.trace, pt.observers)
	op.processed.Add(1)
}

// Close cancels the workers and waits up to timeout for buffered traces
// to be delivered. Later calls return nil.
func (op *ObserverPool) Close(timeout time.Duration) error {
	if op.closed.Swap(true) {
		return nil
	}
	op.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		op.wg.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrObserverPoolShutdownTimeout
	}
}

// Stats returns current pool statistics.
func (op *ObserverPool) Stats() PoolStats {
	return PoolStats{
		Dropped:    op.dropped.Load(),
		Processed:  op.processed.Load(),
		Queued:     len(op.traceCh),
		Workers:    op.workers,
		BufferSize: cap(op.traceCh),
	}
}

// deliver calls every observer, swallowing observer panics.
func deliver(t Trace, observers []Observer) {
	for _, obs := range observers {
		if obs == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			obs.OnTrace(t)
		}()
	}
}
