package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/dakshthapar/alpha-lab-core/internal/event"
)

// SchemaError reports a structurally unusable event log: required columns
// are absent from the events table. This is fatal for the whole sequence,
// unlike per-record validation failures which are absorbed downstream.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("event log schema missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// requiredEventColumns are the columns reconstruction cannot run without.
// order_id in particular is only present when simulator order logging is
// enabled; a log harvested without it is unusable, not merely degraded.
var requiredEventColumns = []string{"event_time", "event_type", "order_id", "side", "limit_price", "quantity"}

// EventStore persists raw lifecycle events in SQLite. The harvester is the
// single writer; reconstruction reads the log back in deterministic order.
type EventStore struct {
	db *sql.DB
}

// NewEventStore opens (creating if needed) an event log with WAL mode enabled.
func NewEventStore(dbPath string) (*EventStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Configure SQLite for high-throughput append-mostly logging
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// id doubles as the stable tie-breaker for equal event times.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_time INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			order_id TEXT,
			side TEXT,
			limit_price TEXT,
			quantity INTEGER
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return &EventStore{db: db}, nil
}

// Append stores one raw event at the end of the log.
func (s *EventStore) Append(ctx context.Context, raw *event.Raw) error {
	var px any
	if raw.LimitPrice.Valid {
		px = raw.LimitPrice.String
	}
	var qty any
	if raw.Quantity.Valid {
		qty = raw.Quantity.Int64
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (event_time, event_type, order_id, side, limit_price, quantity) VALUES (?, ?, ?, ?, ?, ?)",
		raw.EventTime, raw.EventType, raw.OrderID, raw.Side, px, qty,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// AppendBatch stores a batch of raw events in one transaction.
func (s *EventStore) AppendBatch(ctx context.Context, raws []*event.Raw) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO events (event_time, event_type, order_id, side, limit_price, quantity) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, raw := range raws {
		var px any
		if raw.LimitPrice.Valid {
			px = raw.LimitPrice.String
		}
		var qty any
		if raw.Quantity.Valid {
			qty = raw.Quantity.Int64
		}
		if _, err := stmt.ExecContext(ctx, raw.EventTime, raw.EventType, raw.OrderID, raw.Side, px, qty); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}
	return tx.Commit()
}

// CheckSchema verifies the events table carries every required column and
// returns a *SchemaError listing whatever is missing. Logs produced by
// older harvesters without order logging fail here, before any row is read.
func (s *EventStore) CheckSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(events)")
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to scan schema row: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("schema rows iteration error: %w", err)
	}

	var missing []string
	for _, col := range requiredEventColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// LoadOrdered reads back the whole log sorted by event time, with insertion
// order breaking ties, so reconstruction over the same log is reproducible.
// A *SchemaError is returned before any row when required columns are absent.
func (s *EventStore) LoadOrdered(ctx context.Context) ([]*event.Raw, error) {
	if err := s.CheckSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT event_time, event_type, order_id, side, limit_price, quantity FROM events ORDER BY event_time ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var raws []*event.Raw
	for rows.Next() {
		var (
			raw     event.Raw
			orderID sql.NullString
			side    sql.NullString
		)
		// Price text loads verbatim; unparseable text (e.g. "NaN") is a
		// per-record rejection at parse time, not a load failure.
		if err := rows.Scan(&raw.EventTime, &raw.EventType, &orderID, &side, &raw.LimitPrice, &raw.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		raw.OrderID = orderID.String
		raw.Side = side.String
		raws = append(raws, &raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return raws, nil
}

// Count returns the number of stored events.
func (s *EventStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}
