package xevent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("XEVENT_RECOVERY", "true")
	t.Setenv("XEVENT_OBSERVER_WORKERS", "4")
	t.Setenv("XEVENT_OFFLINE_CAPACITY", "100")

	cfg, err := LoadConfigEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Recovery)
	assert.False(t, cfg.DisableLoggingObserver)
	assert.Equal(t, 4, cfg.ObserverWorkers)
	assert.Equal(t, 1024, cfg.ObserverBuffer)
	assert.Equal(t, 100, cfg.OfflineCapacity)
}

func TestLoadConfigEnv_Invalid(t *testing.T) {
	t.Setenv("XEVENT_OBSERVER_WORKERS", "not-a-number")
	_, err := LoadConfigEnv()
	assert.Error(t, err)

	t.Setenv("XEVENT_OBSERVER_WORKERS", "-1")
	_, err = LoadConfigEnv()
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xevent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"recovery: true\ndisable_logging_observer: true\noffline_capacity: 8\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Recovery)
	assert.True(t, cfg.DisableLoggingObserver)
	assert.Equal(t, 8, cfg.OfflineCapacity)
	assert.Equal(t, 1024, cfg.ObserverBuffer)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("offline_capacity: [1, 2"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestBuilder_WithConfig(t *testing.T) {
	d, err := NewDispatcherBuilder().
		WithConfig(Config{Recovery: true, DisableLoggingObserver: true, OfflineCapacity: 1}).
		Build()
	require.NoError(t, err)

	d.AddListener("E", func(Event, ...any) { panic("x") }, "")
	_, err = d.Trigger("E", nil)
	assert.ErrorIs(t, err, ErrListenerPanic)

	q := NewOfflineQueue(d)
	require.NoError(t, q.Enqueue("E", nil))
	assert.ErrorIs(t, q.Enqueue("E", nil), ErrOfflineQueueFull)
}
