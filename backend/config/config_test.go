package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.Sweep.Horizon)
	assert.Equal(t, "@every 5m", cfg.Sweep.Schedule)
	assert.Equal(t, "disk", cfg.Files.Backend)
	assert.Equal(t, int64(100<<20), cfg.Files.MaxUpload)
	assert.Equal(t, 50, cfg.MicCapacity)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
broker:
  port: 7000
  sweep:
    horizon: 30m
  files:
    backend: redis
    max_upload_mb: 2
`), 0o644))
	t.Setenv("SAGIRI_BROKER_HOST", "127.0.0.2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "127.0.0.2", cfg.Host)
	assert.Equal(t, "127.0.0.2:7000", cfg.Addr())
	assert.Equal(t, 30*time.Minute, cfg.Sweep.Horizon)
	assert.Equal(t, "redis", cfg.Files.Backend)
	assert.Equal(t, int64(2<<20), cfg.Files.MaxUpload)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker:\n  port: 70000\n  files:\n    backend: s3\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker.port")
	assert.Contains(t, err.Error(), "s3")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker:\n  sweep:\n    horizon: 1h\n"), 0o644))

	changed := make(chan *Config, 4)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, func(error) {}))

	// give the watcher a moment to attach before editing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("broker:\n  sweep:\n    horizon: 5m\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Sweep.Horizon == 5*time.Minute {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}

func TestWatchNeedsFile(t *testing.T) {
	assert.Error(t, Watch("", func(*Config) {}, func(error) {}))
}
