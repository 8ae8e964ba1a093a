package mure

import (
	"fmt"

	"github.com/severinsimmler/mure/pkg/muretypes"
)

// DecodeError is returned from ResponseRecord.JSON when the response body isn't valid
// JSON. It's mure's own name for muretypes.DecodeError, so callers never need to import
// the internal records package directly.
type DecodeError = muretypes.DecodeError

// UsageError is raised at the construction boundary — before a single goroutine is
// launched — for a caller mistake: a missing url, an unsupported method, or a resource
// of the wrong shape. It is never returned from Drive's iterator once draining begins.
type UsageError struct {
	Field  string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("mure: usage error: %s: %s", e.Field, e.Reason)
}

// CacheError wraps a cache backend failure. Reads that fail are treated as a miss by the
// dispatcher and never reach the caller; writes that fail are logged (when
// MURE_LOG_ERRORS is truthy) and otherwise swallowed. CacheError is exported so a
// caller-supplied Store implementation can build one for its own diagnostics, not because
// mure itself ever returns one.
type CacheError struct {
	Op    string // "has", "get", or "put"
	Cause error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("mure: cache %s: %v", e.Op, e.Cause)
}

func (e *CacheError) Unwrap() error { return e.Cause }
