// Package pool implements the worker pool of the salahor toolkit: a
// dynamically sized set of workers (MinWorkers..MaxWorkers) fed by a bounded
// FIFO task queue, with idle reaping, panic isolation per task, and automatic
// replacement of failed workers.
//
// Completion order across workers is not guaranteed to match submission
// order; only assignment from the queue is FIFO.
package pool
