package codes

import (
	"sync/atomic"
	"time"
)

var lastBatchID atomic.Int64

// nextBatchID derives a batch identifier from the current millisecond clock.
// Rapid submissions that land on the same millisecond get strictly increasing
// values, so two distinct submissions never merge into one batch.
func nextBatchID(now func() time.Time) int64 {
	for {
		candidate := now().UnixMilli()
		last := lastBatchID.Load()
		if candidate <= last {
			candidate = last + 1
		}
		if lastBatchID.CompareAndSwap(last, candidate) {
			return candidate
		}
	}
}
