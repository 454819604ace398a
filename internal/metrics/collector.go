package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates Prometheus instruments for the toolkit components.
// One collector is shared by all streams, queues, and pools of an application;
// individual components are distinguished by their name label.
type Collector struct {
	// Stream instruments
	streamEventsEmitted  *prometheus.CounterVec
	streamListenerErrors *prometheus.CounterVec

	// Queue instruments
	queueEnqueued *prometheus.CounterVec
	queueDropped  *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec

	// Worker pool instruments
	poolTasksSubmitted *prometheus.CounterVec
	poolTasksCompleted *prometheus.CounterVec
	poolTasksFailed    *prometheus.CounterVec
	poolTasksRejected  *prometheus.CounterVec
	poolWorkers        *prometheus.GaugeVec
	poolQueueDepth     *prometheus.GaugeVec
	poolTaskDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered against reg.
// A nil registerer falls back to the Prometheus default registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.streamEventsEmitted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_emitted_total",
			Help:      "Total number of values emitted to stream listeners",
		},
		[]string{"stream"},
	)

	c.streamListenerErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_listener_errors_total",
			Help:      "Total number of listener failures isolated during dispatch",
		},
		[]string{"stream"},
	)

	c.queueEnqueued = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_enqueued_total",
			Help:      "Total number of items accepted by backpressure queues",
		},
		[]string{"queue"},
	)

	c.queueDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dropped_total",
			Help:      "Total number of items discarded by overflow policies",
		},
		[]string{"queue", "policy"},
	)

	c.queueDepth = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of buffered items per queue",
		},
		[]string{"queue"},
	)

	c.poolTasksSubmitted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tasks_submitted_total",
			Help:      "Total number of tasks submitted to worker pools",
		},
		[]string{"pool"},
	)

	c.poolTasksCompleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tasks_completed_total",
			Help:      "Total number of tasks completed successfully",
		},
		[]string{"pool"},
	)

	c.poolTasksFailed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tasks_failed_total",
			Help:      "Total number of tasks that failed or were rejected by worker errors",
		},
		[]string{"pool"},
	)

	c.poolTasksRejected = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tasks_rejected_total",
			Help:      "Total number of tasks rejected at admission",
		},
		[]string{"pool"},
	)

	c.poolWorkers = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_workers",
			Help:      "Current number of live workers per pool",
		},
		[]string{"pool"},
	)

	c.poolQueueDepth = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_queue_depth",
			Help:      "Current number of queued tasks per pool",
		},
		[]string{"pool"},
	)

	c.poolTaskDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordStreamEmit records one value delivered to a stream's listeners.
func (c *Collector) RecordStreamEmit(stream string) {
	if c == nil {
		return
	}
	c.streamEventsEmitted.WithLabelValues(stream).Inc()
}

// RecordListenerError records one isolated listener failure.
func (c *Collector) RecordListenerError(stream string) {
	if c == nil {
		return
	}
	c.streamListenerErrors.WithLabelValues(stream).Inc()
}

// RecordEnqueue records an accepted item and the new buffer depth.
func (c *Collector) RecordEnqueue(queue string, depth int) {
	if c == nil {
		return
	}
	c.queueEnqueued.WithLabelValues(queue).Inc()
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordDrop records an item discarded by an overflow policy.
func (c *Collector) RecordDrop(queue, policy string) {
	if c == nil {
		return
	}
	c.queueDropped.WithLabelValues(queue, policy).Inc()
}

// RecordQueueDepth updates the buffered item gauge.
func (c *Collector) RecordQueueDepth(queue string, depth int) {
	if c == nil {
		return
	}
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordTaskSubmitted records a task accepted by Execute.
func (c *Collector) RecordTaskSubmitted(pool string) {
	if c == nil {
		return
	}
	c.poolTasksSubmitted.WithLabelValues(pool).Inc()
}

// RecordTaskCompleted records a successful task and its duration.
func (c *Collector) RecordTaskCompleted(pool string, d time.Duration) {
	if c == nil {
		return
	}
	c.poolTasksCompleted.WithLabelValues(pool).Inc()
	c.poolTaskDuration.WithLabelValues(pool).Observe(d.Seconds())
}

// RecordTaskFailed records a task that finished with an error.
func (c *Collector) RecordTaskFailed(pool string, d time.Duration) {
	if c == nil {
		return
	}
	c.poolTasksFailed.WithLabelValues(pool).Inc()
	c.poolTaskDuration.WithLabelValues(pool).Observe(d.Seconds())
}

// RecordTaskRejected records a task refused at admission time.
func (c *Collector) RecordTaskRejected(pool string) {
	if c == nil {
		return
	}
	c.poolTasksRejected.WithLabelValues(pool).Inc()
}

// RecordWorkerCount updates the live worker gauge.
func (c *Collector) RecordWorkerCount(pool string, n int) {
	if c == nil {
		return
	}
	c.poolWorkers.WithLabelValues(pool).Set(float64(n))
}

// RecordPoolQueueDepth updates the queued task gauge.
func (c *Collector) RecordPoolQueueDepth(pool string, n int) {
	if c == nil {
		return
	}
	c.poolQueueDepth.WithLabelValues(pool).Set(float64(n))
}
