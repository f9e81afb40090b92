package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

// inspect prints a quick density report for a snapshot DB: row counts,
// valid-book ratio and the first few rows, to eyeball a freshly produced
// training set before merging it.
func main() {
	dbPath := flag.String("db", "", "path to snapshot DB")
	depth := flag.Int("depth", 5, "snapshot depth")
	n := flag.Int("n", 10, "number of head rows to print")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect -db <snapshots.db> [-depth 5] [-n 10]")
		os.Exit(1)
	}

	store, err := storage.NewSnapshotStore(*dbPath, *depth)
	if err != nil {
		slog.Error("Failed to open snapshot store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	total, valid, err := store.Stats(ctx)
	if err != nil {
		slog.Error("Failed to read stats", slog.Any("error", err))
		os.Exit(1)
	}

	runID, _ := store.GetMetadata(ctx, "run_id")
	symbol, _ := store.GetMetadata(ctx, "symbol")

	fmt.Printf("--- SNAPSHOT DB: %s ---\n", *dbPath)
	if runID != "" {
		fmt.Printf("run_id: %s  symbol: %s\n", runID, symbol)
	}
	fmt.Printf("rows: %d  valid (mid>0): %d", total, valid)
	if total > 0 {
		fmt.Printf("  density: %.1f%%", 100*float64(valid)/float64(total))
	}
	fmt.Println()

	if total == 0 {
		return
	}

	head, err := store.Head(ctx, *n)
	if err != nil {
		slog.Error("Failed to read head rows", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("%-16s %-12s %-12s %-8s %-12s %-8s %-12s\n",
		"timestamp", "symbol", "bid_px_1", "bid_qty", "ask_px_1", "ask_qty", "mid")
	for _, s := range head {
		fmt.Printf("%-16d %-12s %-12s %-8d %-12s %-8d %-12s\n",
			int64(s.Ts), s.Symbol,
			s.Bids[0].PriceMicros.String(), int64(s.Bids[0].Qty),
			s.Asks[0].PriceMicros.String(), int64(s.Asks[0].Qty),
			s.MidMicros.String())
	}
}
