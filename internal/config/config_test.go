package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("REDMINE_URL", "")
	t.Setenv("REDMINE_API_KEY", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 30*time.Second, cfg.ProbeInterval())
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoadFileParsesTOML(t *testing.T) {
	t.Setenv("REDMINE_URL", "")
	t.Setenv("REDLOG_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[redmine]
url = "https://redmine.example"
timeout_seconds = 5
default_activity_id = 9

[watch]
probe_interval_seconds = 10

[notifications]
enabled = false

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://redmine.example", cfg.Redmine.URL)
	assert.Equal(t, 9, cfg.Redmine.DefaultActivityID)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 10*time.Second, cfg.ProbeInterval())
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDMINE_URL", "https://env.example")
	t.Setenv("REDMINE_API_KEY", "env-key")
	t.Setenv("REDLOG_DB", "/tmp/redlog-test.db")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.Redmine.URL)
	assert.Equal(t, "env-key", cfg.Redmine.APIKey)
	assert.Equal(t, "/tmp/redlog-test.db", cfg.Storage.Path)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	t.Setenv("REDMINE_URL", "")
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	require.NoError(t, WriteDefault(path))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Watch, cfg.Watch)
}

func TestInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[redmine\nurl = "), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
