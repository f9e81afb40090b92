package domain

import "strings"

// Side identifies which half of the book an order rests on.
type Side uint8

const (
	SideBid Side = iota + 1
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// ParseSide converts a simulator side tag into a typed Side.
// The simulator logs string-typed tags like "Side.BID"; matching is by
// substring containment to stay compatible with that format. A tag
// containing neither BID nor ASK is rejected.
func ParseSide(tag string) (Side, bool) {
	upper := strings.ToUpper(tag)
	if strings.Contains(upper, "BID") {
		return SideBid, true
	}
	if strings.Contains(upper, "ASK") {
		return SideAsk, true
	}
	return 0, false
}
