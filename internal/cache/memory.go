package cache

import (
	"container/list"
	"io"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

type memoryEntry struct {
	fingerprint string
	size        int64
	response    *muretypes.ResponseRecord
}

// MemoryCache is a Store backed by an in-process, byte-quota-bounded LRU. It never
// touches disk and is gone when the process exits.
//
// Every method holds mu for its entire body. A dispatcher worker does at most one Get
// and, on a miss, one later Put per request (internal/dispatcher/dispatcher.go) — not
// enough read pressure to earn a read/write lock split, and a single mutex rules out the
// stale-read window a split lock would otherwise leave between checking an entry exists
// and promoting it to the front of the LRU.
type MemoryCache struct {
	mu       sync.Mutex
	lru      *list.List
	index    map[string]*list.Element
	maxBytes int64
	curBytes int64
	logger   *slog.Logger
}

// NewMemoryCache builds a MemoryCache with a hard ceiling of maxMB megabytes. Once the
// ceiling is hit, Put evicts least-recently-used entries until there's room.
func NewMemoryCache(maxMB int, logger *slog.Logger) *MemoryCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MemoryCache{
		lru:      list.New(),
		index:    make(map[string]*list.Element),
		maxBytes: int64(maxMB) * 1024 * 1024,
		logger:   logger,
	}
}

func (c *MemoryCache) Has(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[fingerprint]
	return ok
}

func (c *MemoryCache) Get(fingerprint string) (*muretypes.ResponseRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[fingerprint]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*memoryEntry).response, true
}

func (c *MemoryCache) Put(fingerprint string, response *muretypes.ResponseRecord) error {
	size := responseSize(response)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[fingerprint]; ok {
		old := elem.Value.(*memoryEntry)
		c.curBytes += size - old.size
		old.size = size
		old.response = response
		c.lru.MoveToFront(elem)
	} else {
		elem := c.lru.PushFront(&memoryEntry{fingerprint: fingerprint, size: size, response: response})
		c.index[fingerprint] = elem
		c.curBytes += size
	}

	c.evictLocked()
	return nil
}

// evictLocked drops least-recently-used entries until curBytes fits under maxBytes.
// Callers must hold c.mu.
func (c *MemoryCache) evictLocked() {
	for c.curBytes > c.maxBytes {
		back := c.lru.Back()
		if back == nil {
			break
		}
		evicted := c.lru.Remove(back).(*memoryEntry)
		delete(c.index, evicted.fingerprint)
		c.curBytes -= evicted.size
		c.logger.Debug("evicted cache entry", "fingerprint", evicted.fingerprint, "size", humanize.Bytes(uint64(evicted.size)))
	}
}

// Close is a no-op: there's no handle to release for an in-memory cache.
func (c *MemoryCache) Close() error { return nil }

func responseSize(r *muretypes.ResponseRecord) int64 {
	size := int64(len(r.Content))
	for k, vs := range r.Headers {
		size += int64(len(k))
		for _, v := range vs {
			size += int64(len(v))
		}
	}
	return size
}
