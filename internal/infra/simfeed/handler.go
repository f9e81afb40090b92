package simfeed

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/dakshthapar/alpha-lab-core/internal/event"
	"github.com/dakshthapar/alpha-lab-core/internal/infra"
	"github.com/dakshthapar/alpha-lab-core/internal/storage"
)

// frame is one lifecycle event as the simulator bridge emits it.
// limit_price and quantity are nullable on the wire.
type frame struct {
	EventTime  int64       `json:"EventTime"`
	EventType  string      `json:"EventType"`
	OrderID    json.Number `json:"order_id"`
	Side       string      `json:"side"`
	LimitPrice *string     `json:"limit_price"`
	Quantity   *int64      `json:"quantity"`
}

// Handler consumes the simulator's lifecycle event stream and appends the
// records to the event log in batches. It owns its connection worker;
// OnMessage is invoked from the worker's single read loop, so no locking
// is needed around the batch.
type Handler struct {
	base      *infra.BaseWSWorker
	url       string
	store     *storage.EventStore
	batch     []*event.Raw
	batchSize int
	breaker   *infra.CircuitBreaker
}

// NewHandler creates a feed handler writing to the given event store.
// Zero timeouts keep the worker defaults.
func NewHandler(url string, store *storage.EventStore, batchSize int, readTimeout, pingInterval time.Duration) *Handler {
	if batchSize <= 0 {
		batchSize = 256
	}
	h := &Handler{
		url:       url,
		store:     store,
		batch:     make([]*event.Raw, 0, batchSize),
		batchSize: batchSize,
		breaker:   infra.NewCircuitBreaker("event-store", 5, 30*time.Second),
	}
	h.base = infra.NewBaseWSWorker(h)
	if readTimeout > 0 {
		h.base.ReadTimeout = readTimeout
	}
	if pingInterval > 0 {
		h.base.PingInterval = pingInterval
	}
	return h
}

func (h *Handler) ID() string     { return "simfeed" }
func (h *Handler) GetURL() string { return h.url }

// Connect starts the feed connection loop.
func (h *Handler) Connect(ctx context.Context) {
	h.base.Start(ctx)
}

// Disconnect terminates the connection loop.
func (h *Handler) Disconnect() {
	h.base.Stop()
}

// OnConnect subscribes to the lifecycle stream.
func (h *Handler) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	sub := map[string]string{"action": "subscribe", "stream": "lifecycle"}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return h.base.Write(websocket.TextMessage, payload)
}

// OnPing keeps the connection alive. The bridge speaks application-level
// pings, not control frames.
func (h *Handler) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return h.base.Write(websocket.TextMessage, []byte("ping"))
}

// OnMessage decodes one frame and stages it for the next batch flush.
// Undecodable frames are dropped and counted, never fatal: the feed keeps
// running on a partially corrupt stream.
func (h *Handler) OnMessage(ctx context.Context, msg []byte) {
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		infra.FramesDroppedTotal.Inc()
		slog.Debug("dropped undecodable frame", "err", err)
		return
	}

	raw := event.AcquireRaw()
	raw.EventTime = f.EventTime
	raw.EventType = f.EventType
	raw.OrderID = f.OrderID.String()
	raw.Side = f.Side
	if f.LimitPrice != nil {
		// Normalize through decimal so the log stores one canonical form
		// ("100.50" and "100.5" harvest identically). Unparseable text is
		// stored verbatim and rejected per-record downstream.
		raw.LimitPrice = sql.NullString{String: *f.LimitPrice, Valid: true}
		if d, err := decimal.NewFromString(*f.LimitPrice); err == nil {
			raw.LimitPrice.String = d.String()
		}
	}
	if f.Quantity != nil {
		raw.Quantity = sql.NullInt64{Int64: *f.Quantity, Valid: true}
	}

	if typ, ok := event.ClassifyType(f.EventType); ok {
		infra.EventsHarvestedTotal.WithLabelValues(typ.String()).Inc()
	} else {
		infra.EventsHarvestedTotal.WithLabelValues("other").Inc()
	}

	h.batch = append(h.batch, raw)
	if len(h.batch) >= h.batchSize {
		h.flush(ctx)
	}
}

// Flush persists any staged records. Call on shutdown.
func (h *Handler) Flush(ctx context.Context) {
	h.flush(ctx)
}

// flush persists the staged batch. The breaker sheds the batch while the
// store is failing so a dead disk cannot grow the batch without bound.
func (h *Handler) flush(ctx context.Context) {
	if len(h.batch) == 0 {
		return
	}
	if !h.breaker.Allow() {
		infra.FramesDroppedTotal.Add(float64(len(h.batch)))
		h.release()
		return
	}
	err := h.store.AppendBatch(ctx, h.batch)
	h.breaker.Record(err)
	if err != nil {
		// The log is the product; losing a batch silently would corrupt it.
		slog.Error("failed to persist event batch", "err", err, "count", len(h.batch))
	}
	h.release()
}

func (h *Handler) release() {
	for _, raw := range h.batch {
		event.ReleaseRaw(raw)
	}
	h.batch = h.batch[:0]
}
