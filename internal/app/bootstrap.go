package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dakshthapar/alpha-lab-core/internal/event"
	"github.com/dakshthapar/alpha-lab-core/internal/infra"
	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

// Bootstrap orchestrates shared startup for the pipeline binaries:
// config, logging, data directories, and the event log.
type Bootstrap struct {
	Config     *infra.Config
	EventStore *storage.EventStore
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, installs the logger and opens the event
// log. configPath may be empty to use the standard resolution order.
func (b *Bootstrap) Initialize(configPath string) error {
	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))

	// Runtime Warmup (GC Optimization)
	event.Warmup()

	if cfg.Data.EventsDB == "" {
		cfg.Data.EventsDB = filepath.Join(infra.GetWorkspaceDir(), "data", "events.db")
	}
	if cfg.Data.SnapshotsDB == "" {
		cfg.Data.SnapshotsDB = filepath.Join(infra.GetWorkspaceDir(), "data", "snapshots.db")
	}
	if err := infra.EnsureDir(filepath.Dir(cfg.Data.EventsDB)); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(filepath.Dir(cfg.Data.SnapshotsDB)); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	evStore, err := storage.NewEventStore(cfg.Data.EventsDB)
	if err != nil {
		return err
	}
	b.EventStore = evStore
	slog.Info("Event log opened", "path", cfg.Data.EventsDB)

	return nil
}

// Close releases bootstrap-owned resources.
func (b *Bootstrap) Close() {
	if b.EventStore != nil {
		b.EventStore.Close()
	}
}
