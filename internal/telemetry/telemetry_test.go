package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderFlushesOnSimulationTime(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewRecorder(true, time.Second, zap.New(core))

	r.Incr("items_spawned")
	for i := 0; i < 59; i++ {
		require.NoError(t, r.Update(1.0/60.0))
	}
	assert.Zero(t, logs.Len(), "no flush before a second of sim time")

	require.NoError(t, r.Update(2.0/60.0))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gameplay counters", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, uint64(1), fields["items_spawned"])
	assert.InDelta(t, 61.0/60.0, fields["window_seconds"], 1e-9,
		"window reports accumulated sim time, not the configured interval")

	// The window counters reset on flush; an empty window stays quiet.
	for i := 0; i < 120; i++ {
		require.NoError(t, r.Update(1.0/60.0))
	}
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, uint64(1), r.Count("items_spawned"), "all-time totals survive the flush")
}

func TestRecorderDisabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewRecorder(false, time.Millisecond, zap.New(core))

	r.Incr("ignored")
	require.NoError(t, r.Update(10))
	assert.Zero(t, logs.Len())
	assert.Zero(t, r.Count("ignored"))
}
