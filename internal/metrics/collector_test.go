package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("salahor_test", reg, zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	c := newTestCollector(t)

	require.NotNil(t, c)
	assert.NotNil(t, c.streamEventsEmitted)
	assert.NotNil(t, c.queueEnqueued)
	assert.NotNil(t, c.queueDropped)
	assert.NotNil(t, c.poolTasksSubmitted)
	assert.NotNil(t, c.poolTaskDuration)
}

func TestCollectorRecordsCounters(t *testing.T) {
	c := newTestCollector(t)

	c.RecordEnqueue("events", 1)
	c.RecordEnqueue("events", 2)
	c.RecordDrop("events", "drop_old")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.queueEnqueued.WithLabelValues("events")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.queueDropped.WithLabelValues("events", "drop_old")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.queueDepth.WithLabelValues("events")))
}

func TestCollectorRecordsPoolLifecycle(t *testing.T) {
	c := newTestCollector(t)

	c.RecordTaskSubmitted("cpu")
	c.RecordTaskCompleted("cpu", 5*time.Millisecond)
	c.RecordTaskFailed("cpu", time.Millisecond)
	c.RecordTaskRejected("cpu")
	c.RecordWorkerCount("cpu", 3)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.poolTasksSubmitted.WithLabelValues("cpu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.poolTasksCompleted.WithLabelValues("cpu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.poolTasksFailed.WithLabelValues("cpu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.poolTasksRejected.WithLabelValues("cpu")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.poolWorkers.WithLabelValues("cpu")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector

	// Components treat a nil collector as "metrics disabled".
	c.RecordStreamEmit("s")
	c.RecordEnqueue("q", 1)
	c.RecordTaskSubmitted("p")
	c.RecordWorkerCount("p", 1)
}
