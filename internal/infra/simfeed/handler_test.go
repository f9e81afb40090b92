package simfeed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

func newTestStore(t *testing.T) *storage.EventStore {
	t.Helper()
	store, err := storage.NewEventStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHandler_OnMessageAndFlush(t *testing.T) {
	store := newTestStore(t)
	h := NewHandler("ws://localhost/feed", store, 10, 0, 0)
	ctx := context.Background()

	h.OnMessage(ctx, []byte(`{"EventTime":1000,"EventType":"ORDER_SUBMITTED","order_id":1,"side":"Side.BID","limit_price":"100.5","quantity":10}`))
	h.OnMessage(ctx, []byte(`{"EventTime":2000,"EventType":"ORDER_EXECUTED","order_id":1}`))

	// Below batch size: nothing persisted yet
	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("premature flush: %d rows", n)
	}

	h.Flush(ctx)
	n, err = store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	raws, err := store.LoadOrdered(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if raws[0].OrderID != "1" || raws[0].Side != "Side.BID" {
		t.Errorf("first record mismatch: %+v", raws[0])
	}
	if !raws[0].LimitPrice.Valid || raws[0].LimitPrice.String != "100.5" {
		t.Errorf("price mismatch: %+v", raws[0].LimitPrice)
	}
	if raws[1].LimitPrice.Valid || raws[1].Quantity.Valid {
		t.Error("execution without qty/price must stay null")
	}
}

func TestHandler_NormalizesPriceText(t *testing.T) {
	store := newTestStore(t)
	h := NewHandler("ws://localhost/feed", store, 10, 0, 0)
	ctx := context.Background()

	// "100.50" and "100.5" must harvest to one canonical form.
	h.OnMessage(ctx, []byte(`{"EventTime":1,"EventType":"ORDER_SUBMITTED","order_id":1,"side":"Side.BID","limit_price":"100.50","quantity":1}`))
	// Unparseable text is stored verbatim, not silently nulled.
	h.OnMessage(ctx, []byte(`{"EventTime":2,"EventType":"ORDER_SUBMITTED","order_id":2,"side":"Side.ASK","limit_price":"NaN","quantity":1}`))
	h.Flush(ctx)

	raws, err := store.LoadOrdered(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if raws[0].LimitPrice.String != "100.5" {
		t.Errorf("price not normalized: %q", raws[0].LimitPrice.String)
	}
	if !raws[1].LimitPrice.Valid || raws[1].LimitPrice.String != "NaN" {
		t.Errorf("unparseable price must round-trip verbatim: %+v", raws[1].LimitPrice)
	}
}

func TestHandler_AutoFlushAtBatchSize(t *testing.T) {
	store := newTestStore(t)
	h := NewHandler("ws://localhost/feed", store, 2, 0, 0)
	ctx := context.Background()

	h.OnMessage(ctx, []byte(`{"EventTime":1,"EventType":"ORDER_SUBMITTED","order_id":1,"side":"Side.BID","limit_price":"100","quantity":1}`))
	h.OnMessage(ctx, []byte(`{"EventTime":2,"EventType":"ORDER_SUBMITTED","order_id":2,"side":"Side.ASK","limit_price":"101","quantity":1}`))

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("batch should have flushed automatically, count=%d", n)
	}
}

func TestHandler_DropsBadFrames(t *testing.T) {
	store := newTestStore(t)
	h := NewHandler("ws://localhost/feed", store, 10, 0, 0)
	ctx := context.Background()

	h.OnMessage(ctx, []byte(`not json`))
	h.Flush(ctx)

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("bad frame must not be stored, count=%d", n)
	}
}
