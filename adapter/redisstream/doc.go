// Package redisstream exports xevent dispatch traces to a Redis stream.
//
// The Sink is an xevent.Observer: every trace becomes one XADD entry. Writes
// are fire-and-forget; a failed write is counted and logged, never surfaced
// to the dispatch that produced the trace.
//
// Config keys accepted by ConfigFromMap:
// - addr: "host:port" (default "127.0.0.1:6379")
// - username, password, db, tls, tls_server_name
// - stream: target stream (default "xevent:traces")
// - max_len_approx: approximate MAXLEN trim (default 10000, 0 disables)
// - write_timeout: per-XADD timeout (default 500ms)
// - workers / buffer_size: observer pool used by Use (default 1 / 4096)
//
// Example:
//
//	d := redisstream.Use(redisstream.Config{
//	    Addr:   "localhost:6379",
//	    Stream: "app:events",
//	},
//	    redisstream.WithLogger(logger),
//	)
//	defer d.Close(context.Background())
package redisstream
