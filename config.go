package xevent

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds dispatcher settings loadable from the environment or YAML.
type Config struct {
	// Recovery converts listener panics into *ListenerPanicError.
	Recovery bool `env:"XEVENT_RECOVERY" yaml:"recovery"`
	// DisableLoggingObserver skips the default xlog trace observer.
	DisableLoggingObserver bool `env:"XEVENT_DISABLE_LOGGING_OBSERVER" yaml:"disable_logging_observer"`
	// ObserverWorkers > 0 delivers traces asynchronously.
	ObserverWorkers int `env:"XEVENT_OBSERVER_WORKERS" yaml:"observer_workers"`
	ObserverBuffer  int `env:"XEVENT_OBSERVER_BUFFER" envDefault:"1024" yaml:"observer_buffer"`
	// OfflineCapacity bounds offline queues; 0 is unbounded.
	OfflineCapacity int `env:"XEVENT_OFFLINE_CAPACITY" yaml:"offline_capacity"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{ObserverBuffer: 1024}
}

// Validate rejects negative sizes.
func (c Config) Validate() error {
	if c.ObserverWorkers < 0 {
		return fmt.Errorf("config: observer_workers must be >= 0, got %d", c.ObserverWorkers)
	}
	if c.ObserverBuffer < 0 {
		return fmt.Errorf("config: observer_buffer must be >= 0, got %d", c.ObserverBuffer)
	}
	if c.OfflineCapacity < 0 {
		return fmt.Errorf("config: offline_capacity must be >= 0, got %d", c.OfflineCapacity)
	}
	return nil
}

// LoadConfigEnv reads XEVENT_* environment variables.
func LoadConfigEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadConfigFile reads a YAML file; keys left out keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return cfg, cfg.Validate()
}
