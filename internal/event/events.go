package event

import (
	"database/sql"

	"github.com/dakshthapar/alpha-lab-core/internal/domain"
	"github.com/dakshthapar/alpha-lab-core/pkg/quant"
)

// Type defines the order-lifecycle event kinds the reconstructor consumes.
type Type uint8

const (
	TypeSubmitted Type = iota + 1
	TypeCancelled
	TypeExecuted
)

// Simulator event-type vocabulary. Anything else in the log (depth prints,
// wakeups, oracle updates) is filtered out before reconstruction.
const (
	RawTypeSubmitted = "ORDER_SUBMITTED"
	RawTypeCancelled = "ORDER_CANCELLED"
	RawTypeExecuted  = "ORDER_EXECUTED"
)

func (t Type) String() string {
	switch t {
	case TypeSubmitted:
		return RawTypeSubmitted
	case TypeCancelled:
		return RawTypeCancelled
	case TypeExecuted:
		return RawTypeExecuted
	default:
		return "UNKNOWN"
	}
}

// ClassifyType maps a raw simulator event-type string to a lifecycle Type.
// Matching is exact, mirroring the upstream log vocabulary.
func ClassifyType(raw string) (Type, bool) {
	switch raw {
	case RawTypeSubmitted:
		return TypeSubmitted, true
	case RawTypeCancelled:
		return TypeCancelled, true
	case RawTypeExecuted:
		return TypeExecuted, true
	default:
		return 0, false
	}
}

// Raw is one record as it arrives from the event source. Price and quantity
// are nullable on the wire: removals legitimately carry neither. The price
// stays text until Parse converts it; malformed text ("NaN", "") is a
// per-record rejection, not a load failure.
type Raw struct {
	EventTime  int64          `json:"EventTime"`
	EventType  string         `json:"EventType"`
	OrderID    string         `json:"order_id"`
	Side       string         `json:"side"`
	LimitPrice sql.NullString `json:"limit_price"`
	Quantity   sql.NullInt64  `json:"quantity"`
}

// Reset clears the record for reuse via the pool.
func (r *Raw) Reset() {
	*r = Raw{}
}

// Lifecycle is a fully validated, typed lifecycle event ready for the book.
type Lifecycle struct {
	Type        Type
	Ts          quant.TimeStamp
	OrderID     string
	Side        domain.Side
	PriceMicros quant.PriceMicros
	Qty         quant.Qty
	// HasQty distinguishes "remove this many" from "remove everything
	// tracked" on cancellation/execution events.
	HasQty bool
}

// RejectReason explains why a raw record was not applied to the book.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	// RejectIgnoredType: event type outside the lifecycle vocabulary.
	// These are filtered before reconstruction and emit no snapshot.
	RejectIgnoredType
	// RejectBadPrice: submission with a null, non-positive or unparseable
	// limit price.
	RejectBadPrice
	// RejectBadQty: submission with a null or non-positive quantity.
	RejectBadQty
	// RejectBadSide: submission whose side tag contains neither BID nor ASK.
	RejectBadSide
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectIgnoredType:
		return "ignored_type"
	case RejectBadPrice:
		return "bad_price"
	case RejectBadQty:
		return "bad_qty"
	case RejectBadSide:
		return "bad_side"
	default:
		return "unknown"
	}
}

// Parse validates a raw record into a typed Lifecycle event.
// A non-None reason means the record must not mutate the book; for
// submissions the caller still emits an unchanged snapshot, for ignored
// types it emits nothing.
func Parse(raw *Raw) (Lifecycle, RejectReason) {
	typ, ok := ClassifyType(raw.EventType)
	if !ok {
		return Lifecycle{}, RejectIgnoredType
	}

	ev := Lifecycle{
		Type:    typ,
		Ts:      quant.TimeStamp(raw.EventTime),
		OrderID: raw.OrderID,
	}

	if typ == TypeSubmitted {
		side, ok := domain.ParseSide(raw.Side)
		if !ok {
			return Lifecycle{}, RejectBadSide
		}
		if !raw.LimitPrice.Valid {
			return Lifecycle{}, RejectBadPrice
		}
		// Rule #1: No Float. Malformed text parses to 0 and is rejected.
		px := quant.ToPriceMicrosStr(raw.LimitPrice.String)
		if px <= 0 {
			return Lifecycle{}, RejectBadPrice
		}
		if !raw.Quantity.Valid || raw.Quantity.Int64 <= 0 {
			return Lifecycle{}, RejectBadQty
		}

		ev.Side = side
		ev.PriceMicros = px
		ev.Qty = quant.Qty(raw.Quantity.Int64)
		ev.HasQty = true
		return ev, RejectNone
	}

	// Removal: quantity is optional. Null or non-positive means "remove the
	// order's entire remaining tracked quantity".
	if raw.Quantity.Valid && raw.Quantity.Int64 > 0 {
		ev.Qty = quant.Qty(raw.Quantity.Int64)
		ev.HasQty = true
	}
	return ev, RejectNone
}
