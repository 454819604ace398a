// Package types provides shared type definitions for the salahor toolkit.
//
// The package deliberately has no dependencies on other toolkit packages so
// that every layer (stream, seq, queue, pool, ratelimit) can report failures
// through the same structured error taxonomy.
package types
