package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_WithMetricsCopies(t *testing.T) {
	original := NewHealthy("queue", "ok")

	result := original.WithMetrics(&Metrics{Uptime: time.Hour, ErrorCount: 5})

	assert.Nil(t, original.Metrics)
	require.NotNil(t, result.Metrics)
	assert.Equal(t, time.Hour, result.Metrics.Uptime)
	assert.Equal(t, 5, result.Metrics.ErrorCount)
}

func TestStatus_WithSubStatusDoesNotShare(t *testing.T) {
	parent := NewHealthy("pipeline", "ok").WithSubStatus(NewHealthy("store", "ok"))

	a := parent.WithSubStatus(NewDegraded("decorator-a", "slow"))
	b := parent.WithSubStatus(NewUnhealthy("decorator-b", "stopped"))

	assert.Len(t, parent.SubStatuses, 1)
	require.Len(t, a.SubStatuses, 2)
	require.Len(t, b.SubStatuses, 2)
	assert.Equal(t, "decorator-a", a.SubStatuses[1].Component)
	assert.Equal(t, "decorator-b", b.SubStatuses[1].Component)
}

type fakeStats struct {
	fill      float64
	overflow  float64
	underflow float64
}

func (f fakeStats) Utilization(int64) float64 { return f.fill }
func (f fakeStats) OverflowRate() float64     { return f.overflow }
func (f fakeStats) UnderflowRate() float64    { return f.underflow }

func TestFromBufferStats(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name        string
		stats       fakeStats
		capacity    int
		wantStatus  string
		wantMessage string
	}{
		{
			name:        "idle buffer",
			stats:       fakeStats{},
			capacity:    10,
			wantStatus:  StateHealthy,
			wantMessage: "Buffer healthy",
		},
		{
			name:        "nearly full buffer is degraded",
			stats:       fakeStats{fill: 0.85},
			capacity:    10,
			wantStatus:  StateDegraded,
			wantMessage: "buffer 85% full",
		},
		{
			name:        "full buffer is unhealthy",
			stats:       fakeStats{fill: 1},
			capacity:    10,
			wantStatus:  StateUnhealthy,
			wantMessage: "buffer 100% full",
		},
		{
			name:        "overflowing buffer is degraded",
			stats:       fakeStats{fill: 0.5, overflow: 0.1},
			capacity:    10,
			wantStatus:  StateDegraded,
			wantMessage: "10.0% of adds overflowed",
		},
		{
			name:        "heavy overflow is unhealthy",
			stats:       fakeStats{overflow: 0.5},
			capacity:    10,
			wantStatus:  StateUnhealthy,
			wantMessage: "50.0% of adds overflowed",
		},
		{
			name:        "unbounded buffer ignores utilization",
			stats:       fakeStats{fill: 1},
			capacity:    0,
			wantStatus:  StateHealthy,
			wantMessage: "Buffer healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromBufferStats("queue", tt.stats, tt.capacity, th)

			assert.Equal(t, "queue", result.Component)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.False(t, result.Timestamp.IsZero())
			require.NotNil(t, result.Metrics)
			assert.Equal(t, tt.stats.overflow, result.Metrics.OverflowRate)
		})
	}
}

func TestFromBufferStats_Underflow(t *testing.T) {
	starved := fakeStats{fill: 0.1, underflow: 0.6}

	result := FromBufferStats("queue", starved, 10, DefaultThresholds())
	assert.True(t, result.IsHealthy(), "underflow is not graded by default")
	require.NotNil(t, result.Metrics)
	assert.InDelta(t, 0.6, result.Metrics.UnderflowRate, 1e-9)

	th := DefaultThresholds()
	th.DegradedUnderflow = 0.5
	result = FromBufferStats("queue", starved, 10, th)
	assert.Equal(t, StateDegraded, result.Status)
	assert.Equal(t, "60.0% of takes underflowed", result.Message)

	result = FromBufferStats("queue", fakeStats{fill: 1, underflow: 0.9}, 10, th)
	assert.Equal(t, StateUnhealthy, result.Status, "utilization outranks starvation")
	assert.Equal(t, "buffer 100% full", result.Message)
}

func TestFromBufferStats_ZeroThresholdsDisableChecks(t *testing.T) {
	result := FromBufferStats("queue", fakeStats{fill: 1, overflow: 1}, 4, Thresholds{})
	assert.True(t, result.IsHealthy(), "got %s", result.Status)
}
