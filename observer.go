package xevent

import (
	"time"

	"github.com/trickstertwo/xlog"
)

// TraceType enumerates dispatcher lifecycle notifications.
type TraceType string

const (
	ListenerAdded    TraceType = "listener_added"
	ListenerRemoved  TraceType = "listener_removed"
	DispatchStart    TraceType = "dispatch_start"
	ListenerInvoked  TraceType = "listener_invoked"
	DispatchCanceled TraceType = "dispatch_cancelled"
	DispatchDone     TraceType = "dispatch_done"
	DispatchFailed   TraceType = "dispatch_failed"
	OfflineQueued    TraceType = "offline_queued"
	OfflineFlushed   TraceType = "offline_flushed"
)

// Trace is a diagnostic record handed to observers. Observers cannot affect
// the dispatch that produced it.
type Trace struct {
	Type       TraceType
	EventName  string
	ListenerID ListenerID
	Source     string
	Count      int
	Duration   time.Duration
	Err        error
	At         time.Time
}

// Observer receives traces. Implementations should not block.
type Observer interface {
	OnTrace(t Trace)
}

// ObserverFunc lets a plain function satisfy Observer.
type ObserverFunc func(t Trace)

func (f ObserverFunc) OnTrace(t Trace) { f(t) }

// LoggingObserver emits traces via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnTrace(t Trace) {
	if o.Logger == nil {
		return
	}
	lg := o.Logger.With(
		xlog.Str("type", string(t.Type)),
		xlog.Str("event_name", t.EventName),
	)
	if t.ListenerID != 0 {
		lg = lg.With(xlog.Str("listener_id", t.ListenerID.String()))
	}
	if t.Source != "" {
		lg = lg.With(xlog.Str("source", t.Source))
	}
	switch t.Type {
	case DispatchFailed:
		lg.Warn().Err(t.Err).Msg("xevent trace")
	default:
		if t.Duration > 0 {
			lg = lg.With(xlog.Dur("duration", t.Duration))
		}
		lg.Debug().Msg("xevent trace")
	}
}
