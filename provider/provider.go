// Package provider defines the byte store behind durable cache namespaces.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// The keyspace "lc:" is owned by lingocache. Foreign writes under it fail
// strict frame validation and are deleted on read.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry). May ignore
	// cost if unsupported. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Sizer is implemented by providers that can report their footprint.
// The store uses it to keep durable writes under a byte quota.
type Sizer interface {
	BytesInUse(ctx context.Context) (int64, error)
}

// UsedMemory extracts used_memory from the text of a Redis-protocol
// "INFO memory" reply.
func UsedMemory(info string) (int64, error) {
	for _, line := range strings.Split(info, "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("provider: used_memory %q: %w", v, err)
		}
		return n, nil
	}
	return 0, errors.New("provider: used_memory missing from INFO reply")
}
