// Package cache stores computed plans so repeated runs of the same
// configuration skip planning.
//
// # Backends
//
//   - [FileCache]: sharded JSON files under the user cache directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers running side by side
//   - [NullCache]: stores nothing, for --no-cache
//
// # Keys
//
// Keys come from a [Keyer]. [DefaultKeyer.PlanKey] hashes the JSON form of
// a [planner.Spec], so any change to the configuration, including the
// seed, yields a new key. [ScopedKeyer] prefixes keys to separate
// namespaces sharing one backend.
//
// # Instrumentation
//
// [Instrument] wraps a Cache so hits, misses and writes are reported
// through [observability.Cache].
package cache

import (
	"context"
	"time"

	"github.com/goutamreddy/fractal/pkg/planner"
)

// TTLPlan is how long a cached plan stays valid. Plans are deterministic,
// so the TTL only bounds disk use.
const TTLPlan = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys.
type Keyer interface {
	// PlanKey returns the key for the plan of spec.
	PlanKey(spec planner.Spec) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey returns "plan:" followed by the SHA-256 of the spec.
func (DefaultKeyer) PlanKey(spec planner.Spec) string {
	return hashKey("plan", spec)
}
