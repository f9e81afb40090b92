package engine

import (
	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/event"
)

// Book is the caller-owned reconstruction state for one event sequence:
// the live order map plus both price ladders. It starts empty, is mutated
// strictly sequentially, and is never shared between runs. Independent
// days/symbols use independent Book instances.
type Book struct {
	orders map[string]*domain.ActiveOrder
	bids   *Ladder
	asks   *Ladder
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		orders: make(map[string]*domain.ActiveOrder),
		bids:   NewLadder(domain.SideBid),
		asks:   NewLadder(domain.SideAsk),
	}
}

func (b *Book) ladder(side domain.Side) *Ladder {
	if side == domain.SideBid {
		return b.bids
	}
	return b.asks
}

// Apply mutates the book with one validated lifecycle event. It reports
// whether any state changed: a removal for an untracked order id is a
// tolerated no-op (truncated logs, orders pre-dating the window).
func (b *Book) Apply(ev event.Lifecycle) bool {
	switch ev.Type {
	case event.TypeSubmitted:
		// Insert or overwrite. A reused id overwrites the tracked order but
		// the previous level contribution stands, matching the reference
		// reconstruction.
		b.orders[ev.OrderID] = &domain.ActiveOrder{
			ID:           ev.OrderID,
			Side:         ev.Side,
			PriceMicros:  ev.PriceMicros,
			RemainingQty: ev.Qty,
		}
		b.ladder(ev.Side).Add(ev.PriceMicros, ev.Qty)
		return true

	case event.TypeCancelled, event.TypeExecuted:
		o, ok := b.orders[ev.OrderID]
		if !ok {
			return false
		}

		removeQty := o.RemainingQty
		if ev.HasQty {
			removeQty = ev.Qty
		}

		b.ladder(o.Side).Remove(o.PriceMicros, removeQty)

		// Removal quantity exceeding the tracked remainder clamps: the
		// order is simply gone.
		if removeQty >= o.RemainingQty {
			delete(b.orders, ev.OrderID)
		} else {
			o.RemainingQty -= removeQty
		}
		return true
	}
	return false
}

// Read-only accessors for snapshotting and tests.

// TopBids returns the best `depth` bid levels, zero-padded.
func (b *Book) TopBids(depth int) []domain.Level { return b.bids.Top(depth) }

// TopAsks returns the best `depth` ask levels, zero-padded.
func (b *Book) TopAsks(depth int) []domain.Level { return b.asks.Top(depth) }

// BestBid returns the highest bid level, if any.
func (b *Book) BestBid() (domain.Level, bool) { return b.bids.Best() }

// BestAsk returns the lowest ask level, if any.
func (b *Book) BestAsk() (domain.Level, bool) { return b.asks.Best() }

// OrderCount returns the number of tracked live orders.
func (b *Book) OrderCount() int { return len(b.orders) }

// Order returns the tracked order for id, if live.
func (b *Book) Order(id string) (domain.ActiveOrder, bool) {
	o, ok := b.orders[id]
	if !ok {
		return domain.ActiveOrder{}, false
	}
	return *o, true
}
