// Package stream implements the push half of the salahor toolkit: an
// EventStream fans emitted values out to a snapshot of its listeners, isolates
// per-listener failures, and signals completion exactly once.
//
// Listeners come in two variants: a plain Callback func, or an Observer with
// optional Error and Complete handlers. Completion is never signalled to a
// Callback by emitting a sentinel value; only an Observer's Complete fires.
//
// Derived streams are built by composition, not inheritance: every source
// constructor parameterizes a generic stream with an explicit teardown
// callback that runs when the listener set empties or the stream completes.
package stream
