package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable for the pipeline binaries. Loaded from YAML,
// then overridden by environment variables where set.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Run struct {
		// Symbol is stamped into every snapshot, constant per run.
		Symbol string `yaml:"symbol"`
		// Depth is the number of book levels per side.
		Depth int `yaml:"depth"`
		// FilterInvalid drops warmup snapshots (mid_price == 0) at the sink.
		FilterInvalid bool `yaml:"filter_invalid"`
	} `yaml:"run"`

	Data struct {
		EventsDB    string `yaml:"events_db"`
		SnapshotsDB string `yaml:"snapshots_db"`
	} `yaml:"data"`

	Feed struct {
		WSURL           string `yaml:"ws_url"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		PingIntervalSec int    `yaml:"ping_interval_sec"`
		BatchSize       int    `yaml:"batch_size"`
	} `yaml:"feed"`

	Metrics struct {
		// Addr is the /metrics listen address for long-running binaries.
		Addr string `yaml:"addr"`
		// PushURL is a Pushgateway base URL for batch binaries, which exit
		// before any scraper could reach them. Empty disables pushing.
		PushURL string `yaml:"push_url"`
	} `yaml:"metrics"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" (default) or "json"
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, then applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Run.Depth == 0 {
		cfg.Run.Depth = 5
	}
	if cfg.Feed.ReadTimeoutSec == 0 {
		cfg.Feed.ReadTimeoutSec = 60
	}
	if cfg.Feed.PingIntervalSec == 0 {
		cfg.Feed.PingIntervalSec = 30
	}
	if cfg.Feed.BatchSize == 0 {
		cfg.Feed.BatchSize = 256
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Run.Symbol == "" {
		return fmt.Errorf("run symbol is required")
	}
	if c.Run.Depth <= 0 {
		return fmt.Errorf("depth must be positive, got %d", c.Run.Depth)
	}
	if c.Feed.WSURL != "" && !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	return nil
}

// overrideWithEnv applies environment variables over file values, so CI and
// batch launchers can retarget a run without editing the config.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("ALPHALAB_SYMBOL"); v != "" {
		cfg.Run.Symbol = v
	}
	if v := os.Getenv("ALPHALAB_EVENTS_DB"); v != "" {
		cfg.Data.EventsDB = v
	}
	if v := os.Getenv("ALPHALAB_SNAPSHOTS_DB"); v != "" {
		cfg.Data.SnapshotsDB = v
	}
	if v := os.Getenv("ALPHALAB_FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("ALPHALAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ResolveConfigPath attempts to find the config.yaml.
// Priority: 1. Current Dir, 2. OS Config Dir
func ResolveConfigPath() string {
	defaultPath := filepath.Join("configs", "config.yaml")

	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	configRoot, err := os.UserConfigDir()
	if err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}

	// Return default and let LoadConfig surface the "file not found" error
	return defaultPath
}
