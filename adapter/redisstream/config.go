package redisstream

import (
	"fmt"
	"time"
)

// Config for the Redis stream trace sink.
type Config struct {
	// Connection
	Addr          string
	Username      string
	Password      string
	DB            int
	TLS           bool
	TLSServerName string

	// Stream
	Stream       string
	MaxLenApprox int64
	WriteTimeout time.Duration

	// Async delivery used by Use
	Workers    int
	BufferSize int
}

// Defaults returns a Config with safe defaults.
func Defaults() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		Stream:       "xevent:traces",
		MaxLenApprox: 10000,
		WriteTimeout: 500 * time.Millisecond,
		Workers:      1,
		BufferSize:   4096,
	}
}

// Validate checks the Config before connecting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr required")
	}
	if c.Stream == "" {
		return fmt.Errorf("config: stream required")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("config: write_timeout must be > 0, got %v", c.WriteTimeout)
	}
	if c.MaxLenApprox < 0 {
		return fmt.Errorf("config: max_len_approx must be >= 0, got %d", c.MaxLenApprox)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// withDefaults fills zero fields from Defaults.
func (c Config) withDefaults() Config {
	d := Defaults()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Stream == "" {
		c.Stream = d.Stream
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.BufferSize < 1 {
		c.BufferSize = d.BufferSize
	}
	return c
}

// ConfigFromMap converts a generic map to Config, starting from Defaults.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	if v, ok := m["addr"].(string); ok && v != "" {
		c.Addr = v
	}
	if v, ok := m["username"].(string); ok {
		c.Username = v
	}
	if v, ok := m["password"].(string); ok {
		c.Password = v
	}
	if v, ok := m["db"].(int); ok {
		c.DB = v
	}
	if v, ok := m["tls"].(bool); ok {
		c.TLS = v
	}
	if v, ok := m["tls_server_name"].(string); ok {
		c.TLSServerName = v
	}
	if v, ok := m["stream"].(string); ok && v != "" {
		c.Stream = v
	}
	switch v := m["max_len_approx"].(type) {
	case int64:
		c.MaxLenApprox = v
	case int:
		c.MaxLenApprox = int64(v)
	}
	switch v := m["write_timeout"].(type) {
	case time.Duration:
		if v > 0 {
			c.WriteTimeout = v
		}
	case string:
		if p, err := time.ParseDuration(v); err == nil && p > 0 {
			c.WriteTimeout = p
		}
	}
	if v, ok := m["workers"].(int); ok && v > 0 {
		c.Workers = v
	}
	if v, ok := m["buffer_size"].(int); ok && v > 0 {
		c.BufferSize = v
	}
	return c
}
