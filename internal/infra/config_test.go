package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
app:
  name: alpha-lab
  version: 0.1.0
run:
  symbol: NIFTY_SIM
  depth: 5
  filter_invalid: true
data:
  events_db: data/events.db
  snapshots_db: data/snapshots.db
feed:
  ws_url: ws://localhost:9001/feed
logging:
  level: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Run.Symbol != "NIFTY_SIM" {
		t.Errorf("symbol = %s", cfg.Run.Symbol)
	}
	if cfg.Run.Depth != 5 {
		t.Errorf("depth = %d", cfg.Run.Depth)
	}
	if !cfg.Run.FilterInvalid {
		t.Error("filter_invalid not parsed")
	}
	// Defaults for unset fields
	if cfg.Feed.ReadTimeoutSec != 60 || cfg.Feed.BatchSize != 256 {
		t.Errorf("defaults not applied: %+v", cfg.Feed)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Missing Symbol", "run:\n  depth: 5\n"},
		{"Negative Depth", "run:\n  symbol: X\n  depth: -1\n"},
		{"Bad Feed URL", "run:\n  symbol: X\nfeed:\n  ws_url: http://nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ALPHALAB_SYMBOL", "BANKNIFTY_SIM")
	t.Setenv("ALPHALAB_EVENTS_DB", "/tmp/override.db")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Run.Symbol != "BANKNIFTY_SIM" {
		t.Errorf("env symbol override not applied: %s", cfg.Run.Symbol)
	}
	if cfg.Data.EventsDB != "/tmp/override.db" {
		t.Errorf("env events_db override not applied: %s", cfg.Data.EventsDB)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_DefaultDepth(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "run:\n  symbol: X\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Run.Depth != 5 {
		t.Errorf("default depth = %d, want 5", cfg.Run.Depth)
	}
}
