package redisstream

// Stream entry fields.
const (
	fieldType       = "type"
	fieldEventName  = "event"
	fieldListenerID = "listener_id"
	fieldSource     = "source"
	fieldCount      = "count"
	fieldDurationNs = "duration_ns"
	fieldError      = "error"
	fieldAt         = "at" // unix ns
)
