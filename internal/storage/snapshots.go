package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
)

// SnapshotStore persists depth snapshots in the fixed columnar layout the
// downstream validators and mergers reference by literal column name:
// timestamp, symbol, bid_px_1..N, bid_qty_1..N, ask_px_1..N, ask_qty_1..N,
// mid_price. Prices become float64 here and only here.
type SnapshotStore struct {
	db    *sql.DB
	depth int

	insertSQL string
}

// NewSnapshotStore opens (creating if needed) a snapshot table for the
// given depth.
func NewSnapshotStore(dbPath string, depth int) (*SnapshotStore, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("depth must be positive, got %d", depth)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	cols := snapshotColumns(depth)
	var defs []string
	defs = append(defs, "timestamp INTEGER NOT NULL", "symbol TEXT NOT NULL")
	for _, c := range cols[2 : len(cols)-1] {
		if strings.Contains(c, "_px_") {
			defs = append(defs, c+" REAL NOT NULL")
		} else {
			defs = append(defs, c+" INTEGER NOT NULL")
		}
	}
	defs = append(defs, "mid_price REAL NOT NULL")

	_, err = db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS depth_snapshots (%s);", strings.Join(defs, ", ")))
	if err != nil {
		return nil, fmt.Errorf("failed to create depth_snapshots table: %w", err)
	}

	// Run provenance KV, one row per key.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO depth_snapshots (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)

	return &SnapshotStore{db: db, depth: depth, insertSQL: insertSQL}, nil
}

// snapshotColumns builds the output column list for a given depth.
// Order matters: it is the downstream contract.
func snapshotColumns(depth int) []string {
	cols := []string{"timestamp", "symbol"}
	for i := 1; i <= depth; i++ {
		cols = append(cols, fmt.Sprintf("bid_px_%d", i), fmt.Sprintf("bid_qty_%d", i))
	}
	for i := 1; i <= depth; i++ {
		cols = append(cols, fmt.Sprintf("ask_px_%d", i), fmt.Sprintf("ask_qty_%d", i))
	}
	return append(cols, "mid_price")
}

// WriteAll persists snapshots in one transaction and returns the number of
// rows written. With filterInvalid true, snapshots without a mid price
// (one-sided or empty books, typically warmup) are skipped — the standard
// downstream policy; the reconstructor itself never suppresses them.
func (s *SnapshotStore) WriteAll(ctx context.Context, snaps []domain.DepthSnapshot, filterInvalid bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for i := range snaps {
		snap := &snaps[i]
		if filterInvalid && !snap.Valid() {
			continue
		}
		if len(snap.Bids) != s.depth || len(snap.Asks) != s.depth {
			return written, fmt.Errorf("snapshot depth %d/%d does not match store depth %d",
				len(snap.Bids), len(snap.Asks), s.depth)
		}

		args := make([]any, 0, 4*s.depth+3)
		args = append(args, int64(snap.Ts), snap.Symbol)
		for _, l := range snap.Bids {
			args = append(args, l.PriceMicros.Float(), int64(l.Qty))
		}
		for _, l := range snap.Asks {
			args = append(args, l.PriceMicros.Float(), int64(l.Qty))
		}
		args = append(args, snap.MidMicros.Float())

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return written, fmt.Errorf("failed to insert snapshot: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit: %w", err)
	}
	return written, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *SnapshotStore) UpsertMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	return err
}

// GetMetadata retrieves a value from the metadata table ("" if absent).
func (s *SnapshotStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Stats returns total and valid (mid_price > 0) row counts.
func (s *SnapshotStore) Stats(ctx context.Context) (total, valid int64, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM depth_snapshots").Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM depth_snapshots WHERE mid_price > 0").Scan(&valid); err != nil {
		return 0, 0, fmt.Errorf("failed to count valid snapshots: %w", err)
	}
	return total, valid, nil
}

// Head reads back the first n snapshots in insertion order.
func (s *SnapshotStore) Head(ctx context.Context, n int) ([]domain.DepthSnapshot, error) {
	cols := snapshotColumns(s.depth)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM depth_snapshots LIMIT ?", strings.Join(cols, ", ")), n)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.DepthSnapshot
	for rows.Next() {
		var (
			ts     int64
			symbol string
			mid    float64
		)
		bidPx := make([]float64, s.depth)
		bidQty := make([]int64, s.depth)
		askPx := make([]float64, s.depth)
		askQty := make([]int64, s.depth)

		dest := []any{&ts, &symbol}
		for i := 0; i < s.depth; i++ {
			dest = append(dest, &bidPx[i], &bidQty[i])
		}
		for i := 0; i < s.depth; i++ {
			dest = append(dest, &askPx[i], &askQty[i])
		}
		dest = append(dest, &mid)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snap := domain.DepthSnapshot{
			Ts:        quant.TimeStamp(ts),
			Symbol:    symbol,
			Bids:      make([]domain.Level, s.depth),
			Asks:      make([]domain.Level, s.depth),
			MidMicros: quant.ToPriceMicros(mid),
		}
		for i := 0; i < s.depth; i++ {
			snap.Bids[i] = domain.Level{PriceMicros: quant.ToPriceMicros(bidPx[i]), Qty: quant.Qty(bidQty[i])}
			snap.Asks[i] = domain.Level{PriceMicros: quant.ToPriceMicros(askPx[i]), Qty: quant.Qty(askQty[i])}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return snaps, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
