package engine

import (
	"sort"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
	"github.com/dakshthapar/alpha-lab-core/pkg/safe"
)

// Ladder holds one side's aggregated price levels, kept sorted best-first
// at all times (bids descending, asks ascending). Incremental maintenance
// replaces the naive full re-sort per event; top-N extraction is a copy of
// the head of the slice.
//
// Invariant: every level has strictly positive quantity. A level that
// drains to zero is removed, never retained.
type Ladder struct {
	side   domain.Side
	levels []domain.Level
}

// NewLadder creates an empty ladder for the given side.
func NewLadder(side domain.Side) *Ladder {
	return &Ladder{side: side}
}

// search returns the index where px is, or would be inserted, preserving
// best-first order. Prices are unique keys, so there are no ties.
func (l *Ladder) search(px quant.PriceMicros) int {
	if l.side == domain.SideBid {
		return sort.Search(len(l.levels), func(i int) bool {
			return l.levels[i].PriceMicros <= px
		})
	}
	return sort.Search(len(l.levels), func(i int) bool {
		return l.levels[i].PriceMicros >= px
	})
}

// Add credits qty to the level at px, creating the level if absent.
func (l *Ladder) Add(px quant.PriceMicros, qty quant.Qty) {
	i := l.search(px)
	if i < len(l.levels) && l.levels[i].PriceMicros == px {
		l.levels[i].Qty = quant.Qty(safe.SafeAdd(int64(l.levels[i].Qty), int64(qty)))
		return
	}
	l.levels = append(l.levels, domain.Level{})
	copy(l.levels[i+1:], l.levels[i:])
	l.levels[i] = domain.Level{PriceMicros: px, Qty: qty}
}

// Remove debits qty from the level at px, flooring at zero. The level is
// deleted the moment it reaches zero. A missing level is a no-op: the event
// log may reference orders that pre-date the observation window.
func (l *Ladder) Remove(px quant.PriceMicros, qty quant.Qty) {
	i := l.search(px)
	if i >= len(l.levels) || l.levels[i].PriceMicros != px {
		return
	}
	remaining := safe.SafeSub(int64(l.levels[i].Qty), int64(qty))
	if remaining > 0 {
		l.levels[i].Qty = quant.Qty(remaining)
		return
	}
	l.levels = append(l.levels[:i], l.levels[i+1:]...)
}

// Top copies the best `depth` levels, zero-padding slots beyond the
// available depth.
func (l *Ladder) Top(depth int) []domain.Level {
	out := make([]domain.Level, depth)
	copy(out, l.levels)
	return out
}

// Best returns the most favorable level, if any.
func (l *Ladder) Best() (domain.Level, bool) {
	if len(l.levels) == 0 {
		return domain.Level{}, false
	}
	return l.levels[0], true
}

// QtyAt returns the aggregate quantity resting at px (0 if no level).
func (l *Ladder) QtyAt(px quant.PriceMicros) quant.Qty {
	i := l.search(px)
	if i < len(l.levels) && l.levels[i].PriceMicros == px {
		return l.levels[i].Qty
	}
	return 0
}

// Len returns the number of distinct populated price levels.
func (l *Ladder) Len() int {
	return len(l.levels)
}
