package xevent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type traceRecorder struct {
	mu     sync.Mutex
	traces []Trace
	closed bool
}

func (r *traceRecorder) OnTrace(t Trace) {
	r.mu.Lock()
	r.traces = append(r.traces, t)
	r.mu.Unlock()
}

func (r *traceRecorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *traceRecorder) types() []TraceType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceType, len(r.traces))
	for i, t := range r.traces {
		out[i] = t.Type
	}
	return out
}

func TestObserver_DispatchTraces(t *testing.T) {
	rec := &traceRecorder{}
	d := newTestDispatcher(t, func(b *DispatcherBuilder) { b.WithObserver(rec) })

	id := d.AddListener("E", noop, "test")
	d.AddListener("E", func(e Event, _ ...any) { e.Cancel() }, "test")
	d.AddListener("E", noop, "test")
	_, err := d.Trigger("E", nil)
	require.NoError(t, err)
	d.RemoveListener(id)
	d.RemoveListener(id)

	assert.Equal(t, []TraceType{
		ListenerAdded, ListenerAdded, ListenerAdded,
		DispatchStart,
		ListenerInvoked,
		ListenerInvoked, DispatchCanceled,
		DispatchDone,
		ListenerRemoved,
	}, rec.types())

	done := rec.traces[7]
	assert.Equal(t, 2, done.Count)
	assert.False(t, done.At.IsZero())
}

func TestObserver_FailedTriggerTraced(t *testing.T) {
	rec := &traceRecorder{}
	d := newTestDispatcher(t, func(b *DispatcherBuilder) { b.WithObserver(rec) })

	_, err := d.Trigger("E", nil, WithEventType("missing"))
	require.Error(t, err)

	require.Len(t, rec.traces, 1)
	assert.Equal(t, DispatchFailed, rec.traces[0].Type)
	assert.ErrorIs(t, rec.traces[0].Err, ErrClassResolution)
}

func TestObserver_PanicDoesNotAffectDispatch(t *testing.T) {
	d := newTestDispatcher(t, func(b *DispatcherBuilder) {
		b.WithObserver(ObserverFunc(func(Trace) { panic("observer") }))
	})
	var log []string
	d.AddListener("E", appendTo(&log, "L"), "")

	ev, err := d.Trigger("E", nil)
	require.NoError(t, err)
	assert.False(t, ev.IsCancelled())
	assert.Equal(t, []string{"L"}, log)
}

func TestObserver_OfflineTraces(t *testing.T) {
	rec := &traceRecorder{}
	d := newTestDispatcher(t, func(b *DispatcherBuilder) { b.WithObserver(rec) })
	q := NewOfflineQueue(d)

	require.NoError(t, q.Enqueue("a", nil))
	_, err := q.Flush()
	require.NoError(t, err)

	assert.Equal(t, []TraceType{OfflineQueued, OfflineFlushed}, rec.types())
	m := d.Metrics()
	assert.Equal(t, uint64(1), m.Queued)
	assert.Equal(t, uint64(1), m.Flushed)
}

func TestObserver_Remove(t *testing.T) {
	rec := &traceRecorder{}
	d := newTestDispatcher(t, func(b *DispatcherBuilder) { b.WithObserver(rec) })

	d.RemoveObserver(rec)
	d.RemoveObserver(ObserverFunc(func(Trace) {}))
	d.AddListener("E", noop, "")

	assert.Empty(t, rec.types())
}

func TestObserverPool_AsyncDelivery(t *testing.T) {
	rec := &traceRecorder{}
	d := newTestDispatcher(t, func(b *DispatcherBuilder) {
		b.WithObserverPool(2, 64).WithObserver(rec)
	})
	d.AddListener("E", noop, "")
	_, err := d.Trigger("E", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.ElementsMatch(t, []TraceType{ListenerAdded, DispatchStart, ListenerInvoked, DispatchDone}, rec.types())
	assert.True(t, rec.closed)
	assert.NoError(t, d.Close(ctx))
}

func TestObserverPool_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	slow := ObserverFunc(func(Trace) { <-block })

	op := NewObserverPool(context.Background(), 1, 1)
	for i := 0; i < 10; i++ {
		op.Notify(Trace{Type: DispatchStart}, []Observer{slow})
	}
	close(block)
	require.NoError(t, op.Close(2*time.Second))

	st := op.Stats()
	assert.Positive(t, st.Dropped)
	assert.Equal(t, uint64(10), st.Dropped+st.Processed)
	assert.Equal(t, 1, st.Workers)
	assert.Equal(t, 1, st.BufferSize)
}
