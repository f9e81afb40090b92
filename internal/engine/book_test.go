package engine

import (
	"testing"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/event"
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
)

func submitted(id string, side domain.Side, px quant.PriceMicros, qty quant.Qty) event.Lifecycle {
	return event.Lifecycle{
		Type: event.TypeSubmitted, OrderID: id, Side: side,
		PriceMicros: px, Qty: qty, HasQty: true,
	}
}

func removal(typ event.Type, id string, qty quant.Qty) event.Lifecycle {
	ev := event.Lifecycle{Type: typ, OrderID: id}
	if qty > 0 {
		ev.Qty = qty
		ev.HasQty = true
	}
	return ev
}

// checkLevelInvariant asserts that for every tracked order, the sum of
// remaining quantities at (side, price) equals the ladder's aggregate.
func checkLevelInvariant(t *testing.T, b *Book) {
	t.Helper()

	type key struct {
		side domain.Side
		px   quant.PriceMicros
	}
	sums := make(map[key]quant.Qty)
	for _, o := range b.orders {
		sums[key{o.Side, o.PriceMicros}] += o.RemainingQty
	}

	for k, want := range sums {
		got := b.ladder(k.side).QtyAt(k.px)
		if got != want {
			t.Errorf("level invariant broken at %v/%d: ladder=%d orders=%d", k.side, k.px, got, want)
		}
	}

	for _, l := range b.bids.levels {
		if l.Qty <= 0 {
			t.Errorf("non-positive bid level retained: %+v", l)
		}
	}
	for _, l := range b.asks.levels {
		if l.Qty <= 0 {
			t.Errorf("non-positive ask level retained: %+v", l)
		}
	}
}

func TestBook_SubmitAndRemove(t *testing.T) {
	b := NewBook()

	if !b.Apply(submitted("1", domain.SideBid, 100000000, 10)) {
		t.Fatal("submit should mutate")
	}
	checkLevelInvariant(t, b)

	if b.OrderCount() != 1 {
		t.Fatalf("order count = %d", b.OrderCount())
	}

	if !b.Apply(removal(event.TypeExecuted, "1", 10)) {
		t.Fatal("removal of tracked order should mutate")
	}
	checkLevelInvariant(t, b)

	if b.OrderCount() != 0 {
		t.Errorf("order should be gone, count=%d", b.OrderCount())
	}
	if _, ok := b.BestBid(); ok {
		t.Error("bid side should be empty")
	}
}

func TestBook_PartialRemoval(t *testing.T) {
	b := NewBook()
	b.Apply(submitted("1", domain.SideBid, 100000000, 10))
	b.Apply(removal(event.TypeCancelled, "1", 4))
	checkLevelInvariant(t, b)

	o, ok := b.Order("1")
	if !ok {
		t.Fatal("order should still be tracked")
	}
	if o.RemainingQty != 6 {
		t.Errorf("remaining = %d, want 6", o.RemainingQty)
	}
	if got := b.bids.QtyAt(100000000); got != 6 {
		t.Errorf("level qty = %d, want 6", got)
	}
}

func TestBook_FullRemovalWithoutQty(t *testing.T) {
	b := NewBook()
	b.Apply(submitted("1", domain.SideAsk, 101000000, 8))
	b.Apply(removal(event.TypeCancelled, "1", 0)) // null qty -> full removal
	checkLevelInvariant(t, b)

	if b.OrderCount() != 0 {
		t.Error("order should be fully removed")
	}
	if b.asks.Len() != 0 {
		t.Error("ask level should be deleted")
	}
}

func TestBook_UnknownRemovalIsNoOp(t *testing.T) {
	b := NewBook()
	if b.Apply(removal(event.TypeCancelled, "99", 5)) {
		t.Error("unknown-id removal must not mutate")
	}
	if b.OrderCount() != 0 || b.bids.Len() != 0 || b.asks.Len() != 0 {
		t.Error("book must stay empty")
	}
}

func TestBook_OverRemovalClamps(t *testing.T) {
	b := NewBook()
	b.Apply(submitted("1", domain.SideBid, 100000000, 10))
	b.Apply(removal(event.TypeExecuted, "1", 25))

	if b.OrderCount() != 0 {
		t.Error("order must be deleted on over-removal")
	}
	if b.bids.Len() != 0 {
		t.Error("level must be deleted, not negative")
	}
}

func TestBook_MultipleOrdersSameLevel(t *testing.T) {
	b := NewBook()
	b.Apply(submitted("1", domain.SideBid, 100000000, 10))
	b.Apply(submitted("2", domain.SideBid, 100000000, 5))
	checkLevelInvariant(t, b)

	if got := b.bids.QtyAt(100000000); got != 15 {
		t.Fatalf("level qty = %d, want 15", got)
	}

	b.Apply(removal(event.TypeExecuted, "1", 10))
	checkLevelInvariant(t, b)

	if got := b.bids.QtyAt(100000000); got != 5 {
		t.Errorf("level qty = %d, want 5", got)
	}
	if b.OrderCount() != 1 {
		t.Errorf("one order should remain, got %d", b.OrderCount())
	}
}
