// Package cache stores registry responses between runs.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] when
// several machines resolve against the same registry, and [NullCache] when
// caching is disabled. Keys come from a [Keyer] so that the same packument
// maps to the same entry regardless of backend.
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a cached registry response is trusted.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss with ok=false and a nil error. Expired entries are
// misses. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey names a raw registry response, e.g. HTTPKey("npm:", "lodash").
	HTTPKey(namespace, key string) string

	// ResolutionKey names the manifest a registry chose for name@rng.
	ResolutionKey(registry, name, rng string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default [Keyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ResolutionKey hashes its inputs so ranges with spaces or operators stay
// safe as keys.
func (DefaultKeyer) ResolutionKey(registry, name, rng string) string {
	return hashKey("resolve", registry, name, rng)
}
