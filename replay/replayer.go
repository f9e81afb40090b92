package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/internal/engine"
	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

// Replayer streams a persisted event log through a Reconstructor and hands
// each snapshot to a sink. The same transition code runs here as on the
// live feed path, so a replayed day reproduces its snapshots exactly.
type Replayer struct {
	store *storage.EventStore
}

// NewReplayer opens the event log at dbPath.
func NewReplayer(dbPath string) (*Replayer, error) {
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &Replayer{store: store}, nil
}

// NewReplayerWithStore wraps an already-open event store.
func NewReplayerWithStore(store *storage.EventStore) *Replayer {
	return &Replayer{store: store}
}

// Run replays the whole log in deterministic order. A *storage.SchemaError
// from an unusable log propagates immediately with no snapshots emitted;
// the caller decides whether to skip this unit of work or halt its batch.
func (r *Replayer) Run(ctx context.Context, rec *engine.Reconstructor, sink func(domain.DepthSnapshot) error) error {
	raws, err := r.store.LoadOrdered(ctx)
	if err != nil {
		return err
	}

	slog.Info("Replaying event log", slog.Int("count", len(raws)))

	for _, raw := range raws {
		snap, _, ok := rec.Process(raw)
		if !ok {
			continue
		}
		if sink != nil {
			if err := sink(snap); err != nil {
				return fmt.Errorf("snapshot sink failed: %w", err)
			}
		}
	}
	return nil
}

// Close releases the underlying store.
func (r *Replayer) Close() error {
	return r.store.Close()
}
