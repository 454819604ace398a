// Package metrics holds the shared Prometheus collector for stream, queue,
// and worker pool instrumentation.
package metrics
