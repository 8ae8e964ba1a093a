// Package cache implements the CacheContract of spec.md §4.3: has/get/put keyed by a
// request fingerprint, plus Close for backend teardown. All three concrete backends
// here (MemoryCache, FileCache, SQLiteCache) are interchangeable from the dispatcher's
// point of view — it only ever calls Store's three operations.
package cache

import "github.com/severinsimmler/mure/pkg/muretypes"

// Store is the CacheContract. Implementations must be safe to call from multiple
// concurrent workers and must tolerate arbitrary binary response bodies.
type Store interface {
	Has(fingerprint string) bool
	Get(fingerprint string) (*muretypes.ResponseRecord, bool)
	Put(fingerprint string, response *muretypes.ResponseRecord) error
	Close() error
}

// entry is the on-disk/in-row shape persistent backends serialize — the fields
// spec.md §6 names: {url, status, ok, reason, headers, content, encoding}.
type entry struct {
	URL      string              `json:"url"`
	Status   int                 `json:"status"`
	OK       bool                `json:"ok"`
	Reason   string              `json:"reason"`
	Headers  map[string][]string `json:"headers"`
	Content  []byte              `json:"content"`
	Encoding string              `json:"encoding"`
}

func toEntry(r *muretypes.ResponseRecord) entry {
	return entry{
		URL:      r.URL,
		Status:   r.Status,
		OK:       r.OK,
		Reason:   r.Reason,
		Headers:  map[string][]string(r.Headers),
		Content:  r.Content,
		Encoding: r.Encoding,
	}
}

func (e entry) toResponse() *muretypes.ResponseRecord {
	return &muretypes.ResponseRecord{
		URL:      e.URL,
		Status:   e.Status,
		OK:       e.OK,
		Reason:   e.Reason,
		Headers:  e.Headers,
		Content:  e.Content,
		Encoding: e.Encoding,
	}
}
