// Package genstore keeps one generation counter per cache namespace.
//
// Every persisted entry records the generation it was written under.
// Clearing a namespace bumps its generation, which makes all older entries
// invisible without scanning the provider; they are deleted lazily when read.
package genstore

import "context"

// GenStore abstracts where generations live.
// Use LocalGenStore for in-process providers (bigcache, ristretto) and
// RedisGenStore or ValkeyGenStore when entries outlive the process.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, namespace string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, namespace string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
