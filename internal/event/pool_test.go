package event

import (
	"testing"
)

func TestRawPool(t *testing.T) {
	// Acquire and use
	ev := AcquireRaw()
	ev.EventType = RawTypeSubmitted
	ev.OrderID = "42"

	if ev.OrderID != "42" {
		t.Error("OrderID not set")
	}

	// Release
	ReleaseRaw(ev)

	// Acquire again - should be reset
	ev2 := AcquireRaw()
	if ev2.OrderID != "" || ev2.EventType != "" {
		t.Error("Raw should be reset after release")
	}
	ReleaseRaw(ev2)
}

func TestWarmup(t *testing.T) {
	// Must not panic or leak non-reset records
	Warmup()
	ev := AcquireRaw()
	if ev.EventType != "" {
		t.Error("warmed record not zeroed")
	}
	ReleaseRaw(ev)
}

// BenchmarkWithoutPool measures allocation without pool
func BenchmarkWithoutPool(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ev := &Raw{
			EventType: RawTypeSubmitted,
			OrderID:   "42",
		}
		_ = ev
	}
}

// BenchmarkWithPool measures allocation with pool
func BenchmarkWithPool(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ev := AcquireRaw()
		ev.EventType = RawTypeSubmitted
		ev.OrderID = "42"
		ReleaseRaw(ev)
	}
}
