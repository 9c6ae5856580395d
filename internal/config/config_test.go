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
	chdir(t, t.TempDir()) // keep a developer .env out of the test

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10000, cfg.SessionCapacity)
	assert.Equal(t, "pieza.search.completed", cfg.KafkaTopic)
	assert.True(t, cfg.DemoMode())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PIEZA_SEARCH_URL", "http://search.internal:8000/")
	t.Setenv("PIEZA_SEARCH_TIMEOUT", "5s")
	t.Setenv("PIEZA_REDIS_ADDR", "redis:6379")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://search.internal:8000", cfg.SearchURL)
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.False(t, cfg.DemoMode())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "pieza.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\nsession:\n  capacity: 50\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 50, cfg.SessionCapacity)
}

func TestLoadMissingConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(New(), "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{HTTPAddr: ":8080", SearchTimeout: time.Second, SessionTTL: time.Hour, SessionCapacity: 1}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.SearchTimeout = 0
	bad.SessionCapacity = -1
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.timeout")
	assert.Contains(t, err.Error(), "session.capacity")

	bad = cfg
	bad.KafkaBroker = "kafka:9092"
	assert.Error(t, bad.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
