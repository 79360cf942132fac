package redisstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xevent"
)

// streamWriter is the subset of the redis client the sink needs.
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Sink writes xevent traces to a Redis stream.
type Sink struct {
	cfg    Config
	w      streamWriter
	closer func() error
	logger *xlog.Logger

	closed  atomic.Bool
	written atomic.Uint64
	failed  atomic.Uint64
}

var _ xevent.Observer = (*Sink)(nil)

// Stats reports sink counters.
type Stats struct {
	Written uint64
	Failed  uint64
}

// NewSink connects to Redis and returns a ready Sink.
func NewSink(cfg Config, logger *xlog.Logger) (*Sink, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		PoolSize:     cfg.Workers + 1,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.TLSServerName,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	s := newSink(cfg, client, logger)
	s.closer = client.Close
	return s, nil
}

func newSink(cfg Config, w streamWriter, logger *xlog.Logger) *Sink {
	if logger == nil {
		logger = xlog.Default()
	}
	return &Sink{cfg: cfg, w: w, logger: logger}
}

// OnTrace appends t to the stream. Failures are counted and logged only.
func (s *Sink) OnTrace(t xevent.Trace) {
	if s.closed.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		ID:     "*",
		Values: encodeTrace(t),
	}
	if s.cfg.MaxLenApprox > 0 {
		args.MaxLen = s.cfg.MaxLenApprox
		args.Approx = true
	}

	if err := s.w.XAdd(ctx, args).Err(); err != nil {
		s.failed.Add(1)
		s.logger.Warn().Err(err).Str("stream", s.cfg.Stream).Msg("xevent/redisstream: trace write failed")
		return
	}
	s.written.Add(1)
}

// Stats returns current counters.
func (s *Sink) Stats() Stats {
	return Stats{Written: s.written.Load(), Failed: s.failed.Load()}
}

// Close stops writing and releases the client the sink created.
func (s *Sink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// encodeTrace flattens a trace into stream fields. Empty fields are omitted.
func encodeTrace(t xevent.Trace) map[string]any {
	vals := make(map[string]any, 8)
	vals[fieldType] = string(t.Type)
	vals[fieldAt] = t.At.UnixNano()
	if t.EventName != "" {
		vals[fieldEventName] = t.EventName
	}
	if t.ListenerID != 0 {
		vals[fieldListenerID] = t.ListenerID.String()
	}
	if t.Source != "" {
		vals[fieldSource] = t.Source
	}
	if t.Count != 0 {
		vals[fieldCount] = t.Count
	}
	if t.Duration > 0 {
		vals[fieldDurationNs] = int64(t.Duration)
	}
	if t.Err != nil {
		vals[fieldError] = t.Err.Error()
	}
	return vals
}

func ping(c *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := c.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}
	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}
	return nil
}
