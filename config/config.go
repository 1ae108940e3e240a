// Package config loads the backtester's YAML configuration file: a
// single YAML file read with gopkg.in/yaml.v3, environment overrides via
// a .env file, and sane defaults applied after parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration for a backtester run.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Feed    FeedConfig    `yaml:"feed"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controls the execution engine's run loop.
type EngineConfig struct {
	CheatOnOpen      bool `yaml:"cheat_on_open"`
	PollIntervalMS   int  `yaml:"poll_interval_ms"` // backoff between Waiting ticks
	OptimizeWorkers  int  `yaml:"optimize_workers"` // 0 = runtime.NumCPU() * 2
}

// FeedConfig points at the data a backtest run reads bars from.
type FeedConfig struct {
	CSVPath      string `yaml:"csv_path"`
	TimeLayout   string `yaml:"time_layout"` // Go reference-time layout for the datetime column
	SessionStart string `yaml:"session_start"` // "HH:MM" wall-clock; not read by cmd/backtester
	SessionEnd   string `yaml:"session_end"`
}

// StorageConfig controls where completed runs are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // path to a SQLite file, or ":memory:"
}

// LogConfig controls the format and level of the process-wide slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads path as YAML, applies any matching environment overrides
// from a .env file (if present), and fills in defaults for anything left
// unset.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval returns the engine's Waiting-tick backoff as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalMS) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Engine.PollIntervalMS <= 0 {
		cfg.Engine.PollIntervalMS = 200
	}
	if cfg.Feed.TimeLayout == "" {
		cfg.Feed.TimeLayout = "2006-01-02T15:04:05"
	}
	if cfg.Feed.SessionStart == "" {
		cfg.Feed.SessionStart = "09:30"
	}
	if cfg.Feed.SessionEnd == "" {
		cfg.Feed.SessionEnd = "16:00"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "backtester.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
