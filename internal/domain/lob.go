package domain

import (
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
)

// ActiveOrder tracks a resting order between submission and full removal.
// All monetary values are strictly int64.
type ActiveOrder struct {
	ID           string
	Side         Side
	PriceMicros  quant.PriceMicros
	RemainingQty quant.Qty
}

// Level is one aggregated price level on a single side of the book.
type Level struct {
	PriceMicros quant.PriceMicros `json:"price,string"`
	Qty         quant.Qty         `json:"qty"`
}

// DepthSnapshot is the book state materialized after one event.
// Bids are ordered best-first (price descending), asks best-first
// (price ascending). Both slices are always exactly depth long, padded
// with zero levels when the book is shallower.
type DepthSnapshot struct {
	Ts        quant.TimeStamp   `json:"timestamp"`
	Symbol    string            `json:"symbol"`
	Bids      []Level           `json:"bids"`
	Asks      []Level           `json:"asks"`
	MidMicros quant.PriceMicros `json:"mid_price,string"`
}

// Valid reports whether both sides had a best level when the snapshot was
// taken. Downstream consumers filter on this (mid_price > 0) before use.
func (s *DepthSnapshot) Valid() bool {
	return s.MidMicros > 0
}
