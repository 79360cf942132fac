package xevent

import (
	"errors"
	"sync"
	"time"
)

// OfflineEntry is one queued occurrence awaiting replay.
type OfflineEntry struct {
	Name      string
	Args      []any
	EventType string
	QueuedAt  time.Time
}

// OfflineQueue records events published before their subscribers exist and
// replays them through a Dispatcher when Flush is called. Each entry is
// replayed exactly once.
type OfflineQueue struct {
	d        *Dispatcher
	capacity int

	mu      sync.Mutex
	entries []OfflineEntry
}

// OfflineOption customizes an OfflineQueue.
type OfflineOption func(*OfflineQueue)

// WithCapacity bounds the number of pending entries; 0 is unbounded.
func WithCapacity(n int) OfflineOption {
	return func(q *OfflineQueue) {
		if n >= 0 {
			q.capacity = n
		}
	}
}

// NewOfflineQueue returns a queue that replays through d, or through
// Default() when d is nil. The capacity defaults to the dispatcher's
// configured offline capacity.
func NewOfflineQueue(d *Dispatcher, opts ...OfflineOption) *OfflineQueue {
	if d == nil {
		d = Default()
	}
	q := &OfflineQueue{d: d, capacity: d.offlineCap}
	for _, o := range opts {
		if o != nil {
			o(q)
		}
	}
	return q
}

var (
	offlineQueue *OfflineQueue
	offlineMu    sync.Mutex
)

// Offline returns the process-wide queue bound to Default(), creating it on first use.
func Offline() *OfflineQueue {
	offlineMu.Lock()
	defer offlineMu.Unlock()
	if offlineQueue == nil {
		offlineQueue = NewOfflineQueue(Default())
	}
	return offlineQueue
}

// ResetOffline discards the process-wide queue and anything still pending in it.
func ResetOffline() {
	offlineMu.Lock()
	offlineQueue = nil
	offlineMu.Unlock()
}

// Enqueue appends an occurrence for later replay. No listener runs.
// Arguments are validated now so Flush cannot fail on them later.
func (q *OfflineQueue) Enqueue(eventName string, args []any, opts ...TriggerOption) error {
	var cfg triggerConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	norm, err := normalizeArgs(eventName, args)
	if err != nil {
		return err
	}

	q.mu.Lock()
	if q.capacity > 0 && len(q.entries) >= q.capacity {
		q.mu.Unlock()
		return ErrOfflineQueueFull
	}
	q.entries = append(q.entries, OfflineEntry{
		Name:      eventName,
		Args:      norm,
		EventType: cfg.eventType,
		QueuedAt:  q.d.clock.Now(),
	})
	q.mu.Unlock()

	q.d.metrics.queued.Add(1)
	q.d.notify(Trace{Type: OfflineQueued, EventName: eventName})
	return nil
}

// Flush replays every entry queued so far in FIFO order and empties the
// queue. Entries enqueued by listeners during the flush wait for the next
// call. Replay errors are joined; a failed entry is not requeued.
//
// If a listener panics, the entry being replayed is consumed and the ones
// after it are put back at the head of the queue before the panic continues.
func (q *OfflineQueue) Flush() (int, error) {
	q.mu.Lock()
	batch := q.entries
	q.entries = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	replayed := 0
	defer func() {
		if replayed < len(batch) {
			q.requeue(batch[replayed:])
		}
	}()

	start := q.d.clock.Now()
	var errs []error
	for _, e := range batch {
		replayed++
		var opts []TriggerOption
		if e.EventType != "" {
			opts = append(opts, WithEventType(e.EventType))
		}
		if _, err := q.d.Trigger(e.Name, e.Args, opts...); err != nil {
			errs = append(errs, err)
		}
		q.d.metrics.flushed.Add(1)
	}

	q.d.notify(Trace{Type: OfflineFlushed, Count: len(batch), Duration: q.d.clock.Since(start)})
	return len(batch), errors.Join(errs...)
}

// requeue puts rest in front of anything enqueued since the batch was taken.
func (q *OfflineQueue) requeue(rest []OfflineEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := make([]OfflineEntry, 0, len(rest)+len(q.entries))
	entries = append(entries, rest...)
	q.entries = append(entries, q.entries...)
}

// Len returns the number of pending entries.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Pending returns a copy of the pending entries in FIFO order.
func (q *OfflineQueue) Pending() []OfflineEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]OfflineEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear drops pending entries without replaying them.
func (q *OfflineQueue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}
