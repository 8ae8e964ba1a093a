// Package mure drives a finite, ordered batch of HTTP requests with bounded
// concurrency and yields their responses strictly in submission order, overlapping
// network I/O for requests still in flight. An optional pluggable cache, keyed by a
// canonical fingerprint of each request, short-circuits repeated calls.
//
// Drive is the entry point; Get/Post/Put/Patch/Delete/Head and Requests are
// convenience constructors for the common case of building requests from loosely-typed
// resource maps.
package mure

import (
	"context"
	"time"

	"github.com/severinsimmler/mure/internal/dispatcher"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Method is an HTTP method accepted by a RequestRecord.
type Method = muretypes.Method

const (
	MethodGet    = muretypes.MethodGet
	MethodPost   = muretypes.MethodPost
	MethodPut    = muretypes.MethodPut
	MethodPatch  = muretypes.MethodPatch
	MethodDelete = muretypes.MethodDelete
	MethodHead   = muretypes.MethodHead
)

// KV is an ordered name/value pair for headers and params.
type KV = muretypes.KV

// RequestRecord describes one HTTP call to drive.
type RequestRecord = muretypes.RequestRecord

// ResponseRecord is the result of one driven HTTP call.
type ResponseRecord = muretypes.ResponseRecord

// Drive consumes requests and returns an Iterator that yields one ResponseRecord per
// request, strictly in the order requests were given, overlapping up to cfg.BatchSize
// HTTP sends at a time. Dropping the Iterator (calling its Close) cancels any requests
// still outstanding; this never surfaces as an error to a consumer that already stopped
// reading.
//
// An empty requests slice returns an Iterator that is immediately exhausted.
func Drive(ctx context.Context, requests []*RequestRecord, cfg Config) *Iterator {
	if ctx == nil {
		ctx = context.Background()
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	normalized := make([]*muretypes.RequestRecord, len(requests))
	for i, r := range requests {
		normalized[i] = withDefaultTimeout(r, cfg.DefaultTimeout)
	}

	d := dispatcher.New(ctx, normalized, batchSize, cfg.Cache)
	return &Iterator{d: d}
}

// withDefaultTimeout returns r unchanged if it already carries a timeout, or a shallow
// copy with cfg's default timeout applied otherwise — Config.DefaultTimeout only matters
// when a RequestRecord itself is silent on the question.
func withDefaultTimeout(r *muretypes.RequestRecord, def time.Duration) *muretypes.RequestRecord {
	if r.Timeout != nil || def <= 0 {
		return r
	}
	clone := *r
	clone.Timeout = &def
	return &clone
}
