package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAMLAndFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  cheat_on_open: true
feed:
  csv_path: testdata/bars.csv
storage:
  dsn: ":memory:"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Engine.CheatOnOpen)
	assert.Equal(t, "testdata/bars.csv", cfg.Feed.CSVPath)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)

	assert.Equal(t, 200, cfg.Engine.PollIntervalMS)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "2006-01-02T15:04:05", cfg.Feed.TimeLayout)
	assert.Equal(t, "09:30", cfg.Feed.SessionStart)
	assert.Equal(t, "16:00", cfg.Feed.SessionEnd)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadReturnsErrorForInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [this is not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
