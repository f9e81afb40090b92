package event

import (
	"sync"
)

// rawPool recycles Raw records on the harvest hot path. A busy simulated
// day produces hundreds of thousands of lifecycle events; pooling keeps the
// decoder allocation-free in steady state.
var rawPool = sync.Pool{
	New: func() any {
		return &Raw{}
	},
}

// AcquireRaw returns a zeroed Raw record from the pool.
func AcquireRaw() *Raw {
	return rawPool.Get().(*Raw)
}

// ReleaseRaw resets the record and returns it to the pool.
// The caller must not touch the record afterwards.
func ReleaseRaw(r *Raw) {
	r.Reset()
	rawPool.Put(r)
}

// Warmup pre-populates the pool to avoid allocation spikes at startup.
func Warmup() {
	warm := make([]*Raw, 64)
	for i := range warm {
		warm[i] = AcquireRaw()
	}
	for _, r := range warm {
		ReleaseRaw(r)
	}
}
