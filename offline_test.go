package xevent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineQueue_EnqueueDoesNotInvoke(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)
	invoked := false
	d.AddListener("a", func(Event, ...any) { invoked = true }, "")

	require.NoError(t, q.Enqueue("a", []any{1}))
	assert.False(t, invoked)
	assert.Equal(t, 1, q.Len())
}

func TestOfflineQueue_FlushFIFOExactlyOnce(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)

	require.NoError(t, q.Enqueue("a", []any{1}))
	require.NoError(t, q.Enqueue("b", []any{2}))

	type call struct {
		name string
		arg  any
	}
	var calls []call
	record := func(e Event, args ...any) { calls = append(calls, call{e.Name(), args[0]}) }
	d.AddListener("a", record, "")
	d.AddListener("b", record, "")

	n, err := q.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []call{{"a", 1}, {"b", 2}}, calls)

	n, err = q.Flush()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, calls, 2)
	assert.Zero(t, q.Len())
}

func TestOfflineQueue_EnqueueDuringFlushWaits(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)
	var log []string
	d.AddListener("a", func(Event, ...any) {
		log = append(log, "a")
		require.NoError(t, q.Enqueue("b", nil))
	}, "")
	d.AddListener("b", appendTo(&log, "b"), "")

	require.NoError(t, q.Enqueue("a", nil))

	n, err := q.Flush()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a"}, log)
	assert.Equal(t, 1, q.Len())

	n, err = q.Flush()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestOfflineQueue_FlushJoinsErrorsAndConsumesAll(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)
	var log []string
	d.AddListener("ok", appendTo(&log, "ok"), "")

	require.NoError(t, q.Enqueue("ok", nil))
	require.NoError(t, q.Enqueue("typed", nil, WithEventType("unregistered")))
	require.NoError(t, q.Enqueue("ok", nil))

	n, err := q.Flush()
	assert.Equal(t, 3, n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClassResolution))
	assert.Equal(t, []string{"ok", "ok"}, log)

	n, err = q.Flush()
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestOfflineQueue_EventTypePreserved(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Resolver().Register("saved", func() Event { return &savedEvent{} }))
	q := NewOfflineQueue(d)

	var got Event
	d.AddListener("save", func(e Event, _ ...any) { got = e }, "")
	require.NoError(t, q.Enqueue("save", nil, WithEventType("saved")))

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "saved", pending[0].EventType)
	assert.False(t, pending[0].QueuedAt.IsZero())

	_, err := q.Flush()
	require.NoError(t, err)
	assert.IsType(t, &savedEvent{}, got)
}

func TestOfflineQueue_Capacity(t *testing.T) {
	d := newTestDispatcher(t, func(b *DispatcherBuilder) { b.WithOfflineCapacity(2) })
	q := NewOfflineQueue(d)

	require.NoError(t, q.Enqueue("a", nil))
	require.NoError(t, q.Enqueue("b", nil))
	assert.ErrorIs(t, q.Enqueue("c", nil), ErrOfflineQueueFull)

	unbounded := NewOfflineQueue(d, WithCapacity(0))
	for i := 0; i < 10; i++ {
		require.NoError(t, unbounded.Enqueue("a", nil))
	}
}

func TestOfflineQueue_RejectsInvalidArguments(t *testing.T) {
	q := NewOfflineQueue(newTestDispatcher(t))

	assert.ErrorIs(t, q.Enqueue("", nil), ErrInvalidEventName)
	assert.ErrorIs(t, q.Enqueue("a", []any{NamedArgs{"k": 1}}), ErrInvalidArgument)
	assert.Zero(t, q.Len())
}

func TestOfflineQueue_Clear(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)
	invoked := false
	d.AddListener("a", func(Event, ...any) { invoked = true }, "")

	require.NoError(t, q.Enqueue("a", nil))
	q.Clear()

	n, err := q.Flush()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, invoked)
}

func TestOfflineQueue_PanicKeepsRemainingEntries(t *testing.T) {
	d := newTestDispatcher(t)
	q := NewOfflineQueue(d)

	var log []string
	d.AddListener("a", func(Event, ...any) { panic("boom") }, "")
	d.AddListener("b", appendTo(&log, "b"), "")

	require.NoError(t, q.Enqueue("a", nil))
	require.NoError(t, q.Enqueue("b", []any{1}))
	require.NoError(t, q.Enqueue("c", nil))

	assert.PanicsWithValue(t, "boom", func() { _, _ = q.Flush() })
	assert.Empty(t, log)

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Name)
	assert.Equal(t, []any{1}, pending[0].Args)
	assert.Equal(t, "c", pending[1].Name)

	n, err := q.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"b"}, log)
	assert.Zero(t, q.Len())
}

func TestOfflineQueue_NilDispatcherUsesDefault(t *testing.T) {
	d := useTestDefault(t)
	q := NewOfflineQueue(nil)

	var log []string
	d.AddListener("a", appendTo(&log, "a"), "")
	require.NoError(t, q.Enqueue("a", nil))

	_, err := q.Flush()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, log)
}
