// Package seq implements the pull half of the salahor toolkit: lazy
// sequences consumed by explicit iteration, and the operator library over
// them (transforms, time-based operators, batching, windowing, retry, and
// combinators).
//
// Time-based operators run a small pump goroutine feeding an internal
// backpressure queue, bound to the context of the first Next call; cancelling
// that context clears all timers and tears the pump down.
package seq
