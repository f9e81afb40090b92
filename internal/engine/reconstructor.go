package engine

import (
	"sort"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/event"
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
	"github.com/dakshthapar/alpha-lab-core/pkg/safe"
)

// DefaultDepth is the number of levels materialized per side. Every
// downstream consumer of the snapshot table is built against 5.
const DefaultDepth = 5

// Config parameterizes one reconstruction run.
type Config struct {
	// Symbol is stamped into every snapshot, constant for the run.
	Symbol string
	// Depth is the number of levels per side (default 5).
	Depth int
}

func (c Config) withDefaults() Config {
	if c.Depth <= 0 {
		c.Depth = DefaultDepth
	}
	return c
}

// Stats counts what happened to the input during a run.
type Stats struct {
	// Emitted is the number of snapshots produced (== lifecycle events seen).
	Emitted uint64
	// Applied is the number of events that mutated the book.
	Applied uint64
	// Discarded counts submissions rejected by validation, per reason.
	Discarded map[event.RejectReason]uint64
	// NoOps counts removals referencing untracked order ids.
	NoOps uint64
}

// Reconstructor is the single-threaded reconstruction hotpath. It consumes
// a time-ordered lifecycle event stream and emits one depth snapshot per
// event, reflecting the book state after that event.
//
// This MUST be driven from a single goroutine; all state is run-local.
type Reconstructor struct {
	cfg   Config
	book  *Book
	stats Stats
}

// NewReconstructor creates a fresh reconstructor with an empty book.
func NewReconstructor(cfg Config) *Reconstructor {
	return &Reconstructor{
		cfg:  cfg.withDefaults(),
		book: NewBook(),
		stats: Stats{
			Discarded: make(map[event.RejectReason]uint64),
		},
	}
}

// Process applies one raw record and returns the resulting snapshot.
// ok is false when the record's event type is outside the lifecycle
// vocabulary: those are filtered out and emit nothing. Every other record
// emits a snapshot, including rejected submissions and no-op removals,
// which leave the book unchanged. reason explains any rejection.
func (r *Reconstructor) Process(raw *event.Raw) (snap domain.DepthSnapshot, reason event.RejectReason, ok bool) {
	ev, reason := event.Parse(raw)
	if reason == event.RejectIgnoredType {
		return domain.DepthSnapshot{}, reason, false
	}

	if reason == event.RejectNone {
		if r.book.Apply(ev) {
			r.stats.Applied++
		} else {
			r.stats.NoOps++
		}
	} else {
		r.stats.Discarded[reason]++
	}

	r.stats.Emitted++
	return r.Snapshot(quant.TimeStamp(raw.EventTime)), reason, true
}

// Snapshot materializes the current top-of-book state at ts.
func (r *Reconstructor) Snapshot(ts quant.TimeStamp) domain.DepthSnapshot {
	snap := domain.DepthSnapshot{
		Ts:     ts,
		Symbol: r.cfg.Symbol,
		Bids:   r.book.TopBids(r.cfg.Depth),
		Asks:   r.book.TopAsks(r.cfg.Depth),
	}

	bid, hasBid := r.book.BestBid()
	ask, hasAsk := r.book.BestAsk()
	if hasBid && hasAsk {
		// Integer division truncates the half-micro when bid+ask is odd in
		// micros; that is below any representable tick.
		snap.MidMicros = quant.PriceMicros(
			safe.SafeDiv(safe.SafeAdd(int64(bid.PriceMicros), int64(ask.PriceMicros)), 2))
	}
	return snap
}

// Stats returns run counters accumulated so far.
func (r *Reconstructor) Stats() Stats {
	return r.stats
}

// Book exposes the underlying book for invariant checks in tests.
func (r *Reconstructor) Book() *Book {
	return r.book
}

// SortEvents orders raw records by event time, stably, so that ties keep
// their original input order. Reconstruction is deterministic only under
// this ordering.
func SortEvents(raws []*event.Raw) {
	sort.SliceStable(raws, func(i, j int) bool {
		return raws[i].EventTime < raws[j].EventTime
	})
}

// Reconstruct runs the whole pipeline over a finite record slice: stable
// time sort, type filter, per-event transition, one snapshot per processed
// event. An empty input produces an empty output.
func Reconstruct(raws []*event.Raw, cfg Config) []domain.DepthSnapshot {
	SortEvents(raws)

	rec := NewReconstructor(cfg)
	snaps := make([]domain.DepthSnapshot, 0, len(raws))
	for _, raw := range raws {
		if snap, _, ok := rec.Process(raw); ok {
			snaps = append(snaps, snap)
		}
	}
	return snaps
}
