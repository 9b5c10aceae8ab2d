package backends

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingsRecord(t *testing.T) {
	timings := &Timings{}
	timings.Record(2 * time.Millisecond)
	timings.Record(4 * time.Millisecond)

	stats := Statistics{}
	stats.ComputeRunStatistics(timings)
	assert.Equal(t, uint64(2), stats.ExecutionCount)
	assert.Equal(t, 6*time.Millisecond, stats.TotalTime)
	assert.Equal(t, 3*time.Millisecond, stats.AverageRunTime)
}

func TestStatisticsWithoutCalls(t *testing.T) {
	stats := Statistics{}
	stats.ComputeRunStatistics(&Timings{})
	assert.Equal(t, uint64(0), stats.ExecutionCount)
	assert.Equal(t, time.Duration(0), stats.TotalTime)
	assert.Equal(t, time.Duration(0), stats.AverageRunTime)
}
