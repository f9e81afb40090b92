package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/dakshthapar/alpha-lab-core/internal/app"
	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/engine"
	"github.com/dakshthapar/alpha-lab-core/internal/infra"
	"github.com/dakshthapar/alpha-lab-core/internal/storage"
	"github.com/dakshthapar/alpha-lab-core/replay"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: standard resolution)")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	infra.PrintBanner(cfg, "RECONSTRUCT")
	reg := infra.InitMetrics()
	ctx := context.Background()

	rec := engine.NewReconstructor(engine.Config{
		Symbol: cfg.Run.Symbol,
		Depth:  cfg.Run.Depth,
	})

	replayer := replay.NewReplayerWithStore(bootstrap.EventStore)

	var snaps []domain.DepthSnapshot
	err := replayer.Run(ctx, rec, func(s domain.DepthSnapshot) error {
		snaps = append(snaps, s)
		return nil
	})
	if err != nil {
		var schemaErr *storage.SchemaError
		if errors.As(err, &schemaErr) {
			// Unusable log: the batch launcher skips this unit of work.
			slog.Error("Event log is structurally unusable", slog.Any("error", schemaErr))
			os.Exit(2)
		}
		slog.Error("Reconstruction failed", slog.Any("error", err))
		os.Exit(1)
	}

	sink, err := storage.NewSnapshotStore(cfg.Data.SnapshotsDB, cfg.Run.Depth)
	if err != nil {
		slog.Error("Failed to open snapshot store", slog.Any("error", err))
		os.Exit(1)
	}
	defer sink.Close()

	written, err := sink.WriteAll(ctx, snaps, cfg.Run.FilterInvalid)
	if err != nil {
		slog.Error("Failed to write snapshots", slog.Any("error", err))
		os.Exit(1)
	}

	// Run provenance for the merge/validation stages downstream.
	runID := uuid.NewString()
	meta := map[string]string{
		"run_id":    runID,
		"symbol":    cfg.Run.Symbol,
		"depth":     strconv.Itoa(cfg.Run.Depth),
		"source_db": cfg.Data.EventsDB,
	}
	for k, v := range meta {
		if err := sink.UpsertMetadata(ctx, k, v); err != nil {
			slog.Warn("Failed to record run metadata", "key", k, slog.Any("error", err))
		}
	}

	stats := rec.Stats()
	for reason, n := range stats.Discarded {
		infra.EventsDiscardedTotal.WithLabelValues(reason.String()).Add(float64(n))
	}
	infra.SnapshotsEmittedTotal.Add(float64(stats.Emitted))
	var invalid int
	for i := range snaps {
		if !snaps[i].Valid() {
			invalid++
		}
	}
	infra.SnapshotsInvalidTotal.Add(float64(invalid))

	if cfg.Metrics.PushURL != "" {
		grouping := map[string]string{"run_id": runID, "symbol": cfg.Run.Symbol}
		if err := infra.PushMetrics(cfg.Metrics.PushURL, "reconstruct", grouping, reg); err != nil {
			slog.Warn("Failed to push run metrics", slog.Any("error", err))
		}
	}

	slog.Info("Reconstruction complete",
		slog.String("run_id", runID),
		slog.String("symbol", cfg.Run.Symbol),
		slog.Uint64("events_applied", stats.Applied),
		slog.Uint64("removal_noops", stats.NoOps),
		slog.Uint64("snapshots_emitted", stats.Emitted),
		slog.Int("snapshots_written", written),
		slog.String("out", cfg.Data.SnapshotsDB))
}
