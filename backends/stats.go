package backends

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/edge-analytics/edgerunner/util/safeconv"
)

// Timings accumulates forward pass counters. The fields are updated with
// atomic operations, so a Timings value must not be copied once in use.
type Timings struct {
	NumCalls uint64
	TotalNS  uint64
}

// Record adds one call of the given duration.
func (t *Timings) Record(elapsed time.Duration) {
	atomic.AddUint64(&t.NumCalls, 1)
	atomic.AddUint64(&t.TotalNS, safeconv.DurationToU64(elapsed))
}

// Statistics is a point in time view over accumulated timings.
type Statistics struct {
	ExecutionCount uint64
	TotalTime      time.Duration
	AverageRunTime time.Duration
}

// ComputeRunStatistics fills the statistics from the given timings.
func (s *Statistics) ComputeRunStatistics(t *Timings) {
	calls := atomic.LoadUint64(&t.NumCalls)
	totalNS := atomic.LoadUint64(&t.TotalNS)
	s.ExecutionCount = calls
	s.TotalTime = safeconv.U64ToDuration(totalNS)
	s.AverageRunTime = time.Duration(float64(totalNS) / math.Max(1, float64(calls)))
}
