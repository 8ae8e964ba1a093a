package mure

import (
	"time"

	"github.com/severinsimmler/mure/internal/cache"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Config controls one Drive call. The zero value drives with a batch size of 1, the
// 30 second default timeout, and no cache; use DefaultConfig() and override only the
// fields that matter, following capsulecache's Config/DefaultConfig shape.
type Config struct {
	// BatchSize is the maximum number of HTTP sends in flight at once. Values below 1
	// are treated as 1.
	BatchSize int

	// DefaultTimeout is used for any request whose own Timeout is unset.
	DefaultTimeout time.Duration

	// Cache is consulted before every HTTP send and written after every cache miss. A
	// nil Cache behaves as an always-empty, always-discarding cache (§4.3's "nil cache
	// ⇒ has≡false, put≡noop").
	Cache Store
}

// DefaultConfig returns the configuration Drive uses when none is supplied: a batch size
// of 5, a 30 second default timeout, and no cache.
func DefaultConfig() Config {
	return Config{
		BatchSize:      5,
		DefaultTimeout: muretypes.DefaultTimeout,
		Cache:          nil,
	}
}

// Store is mure's public name for the cache backend contract: has/get/put/close, keyed
// by request fingerprint. MemoryCache, FileCache, and SQLiteCache all satisfy it, and so
// can a caller's own implementation.
type Store = cache.Store
