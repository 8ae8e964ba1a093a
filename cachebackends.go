package mure

import (
	"log/slog"

	"github.com/severinsimmler/mure/internal/cache"
)

// NewMemoryCache builds an in-process Store bounded to maxMB megabytes, evicting the
// least-recently-used entry once the ceiling is hit. It never touches disk and is gone
// when the process exits. A nil logger discards eviction diagnostics.
func NewMemoryCache(maxMB int, logger *slog.Logger) Store {
	return cache.NewMemoryCache(maxMB, logger)
}

// NewFileCache builds a Store backed by one file per fingerprint under dir. If dir is
// empty, it resolves the MURE_CACHE_DIR environment variable, falling back to
// ~/.mure/cache.
func NewFileCache(dir string) (Store, error) {
	return cache.NewFileCache(dir)
}

// OpenSQLiteCache opens (or creates) a WAL-mode SQLite database at path as a Store, for
// callers who want a durable cache without managing their own connection pool.
func OpenSQLiteCache(path string) (Store, error) {
	return cache.OpenSQLiteCache(path)
}
