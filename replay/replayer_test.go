package replay

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/engine"
	"github.com/dakshthapar/alpha-lab-core/internal/event"
	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

func seedLog(t *testing.T, dbPath string) {
	t.Helper()
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	px := func(s string) sql.NullString {
		return sql.NullString{String: s, Valid: true}
	}
	raws := []*event.Raw{
		{EventTime: 1, EventType: event.RawTypeSubmitted, OrderID: "1", Side: "Side.BID",
			LimitPrice: px("100"), Quantity: sql.NullInt64{Int64: 10, Valid: true}},
		{EventTime: 2, EventType: event.RawTypeSubmitted, OrderID: "2", Side: "Side.ASK",
			LimitPrice: px("101"), Quantity: sql.NullInt64{Int64: 5, Valid: true}},
		{EventTime: 3, EventType: "WAKEUP"},
		{EventTime: 4, EventType: event.RawTypeExecuted, OrderID: "1"},
	}
	if err := store.AppendBatch(ctx, raws); err != nil {
		t.Fatal(err)
	}
}

func TestReplayer_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	seedLog(t, dbPath)

	r, err := NewReplayer(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rec := engine.NewReconstructor(engine.Config{Symbol: "NIFTY_SIM"})
	var snaps []domain.DepthSnapshot
	err = r.Run(context.Background(), rec, func(s domain.DepthSnapshot) error {
		snaps = append(snaps, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 4 stored events, one filtered (WAKEUP) -> 3 snapshots
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}

	mid := snaps[1]
	if mid.MidMicros != 100500000 {
		t.Errorf("mid after both sides = %d, want 100500000", mid.MidMicros)
	}

	final := snaps[2]
	if final.Bids[0].Qty != 0 {
		t.Errorf("bid side should be empty after execution: %+v", final.Bids[0])
	}
	if final.Asks[0].PriceMicros != 101000000 {
		t.Errorf("ask side should survive: %+v", final.Asks[0])
	}
}

func TestReplayer_Deterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	seedLog(t, dbPath)

	run := func() []domain.DepthSnapshot {
		r, err := NewReplayer(dbPath)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()

		rec := engine.NewReconstructor(engine.Config{Symbol: "NIFTY_SIM"})
		var snaps []domain.DepthSnapshot
		if err := r.Run(context.Background(), rec, func(s domain.DepthSnapshot) error {
			snaps = append(snaps, s)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		return snaps
	}

	if !reflect.DeepEqual(run(), run()) {
		t.Error("replay is not deterministic")
	}
}

func TestReplayer_SchemaErrorPropagates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_time INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		side TEXT, limit_price TEXT, quantity INTEGER
	);`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	r, err := NewReplayer(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rec := engine.NewReconstructor(engine.Config{})
	called := false
	err = r.Run(context.Background(), rec, func(domain.DepthSnapshot) error {
		called = true
		return nil
	})

	var schemaErr *storage.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *storage.SchemaError, got %v", err)
	}
	if called {
		t.Error("no snapshot may be emitted on a schema error")
	}
}

func TestReplayer_EmptyLog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	r, err := NewReplayer(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rec := engine.NewReconstructor(engine.Config{})
	count := 0
	if err := r.Run(context.Background(), rec, func(domain.DepthSnapshot) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("empty log must not error: %v", err)
	}
	if count != 0 {
		t.Errorf("empty log produced %d snapshots", count)
	}
}
