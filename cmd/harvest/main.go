package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dakshthapar/alpha-lab-core/internal/app"
	"github.com/dakshthapar/alpha-lab-core/internal/infra"
	"github.com/dakshthapar/alpha-lab-core/internal/infra/simfeed"
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
	infra.PrintBanner(cfg, "HARVEST")
	if cfg.Feed.WSURL == "" {
		slog.Error("feed.ws_url is required for harvesting")
		os.Exit(1)
	}

	// Single-writer guard: two harvesters on one event log would interleave
	// batches and break the stable tie order.
	unlock, err := infra.CreateLockFile(filepath.Dir(cfg.Data.EventsDB))
	if err != nil {
		slog.Error("Failed to acquire instance lock", slog.Any("error", err))
		os.Exit(1)
	}
	defer unlock()

	// Metrics endpoint (localhost only by default)
	reg := infra.InitMetrics()
	metricsAddr := cfg.Metrics.Addr
	if metricsAddr == "" {
		metricsAddr = "localhost:9091"
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", infra.MetricsHandler(reg))
		slog.Info("Metrics server started", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			slog.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := simfeed.NewHandler(cfg.Feed.WSURL, bootstrap.EventStore, cfg.Feed.BatchSize,
		time.Duration(cfg.Feed.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.Feed.PingIntervalSec)*time.Second)

	handler.Connect(ctx)
	slog.Info("Harvesting lifecycle events", "url", cfg.Feed.WSURL, "out", cfg.Data.EventsDB)

	<-ctx.Done()
	slog.Info("Shutting down...")
	handler.Disconnect()

	// Persist whatever is still staged before exit.
	handler.Flush(context.Background())

	if n, err := bootstrap.EventStore.Count(context.Background()); err == nil {
		slog.Info("Harvest complete", slog.Int64("events", n))
	}
}
