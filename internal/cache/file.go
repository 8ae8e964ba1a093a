package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	segjson "github.com/segmentio/encoding/json"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// MureCacheDirEnv names the environment variable FileCache falls back to when no
// explicit directory is given.
const MureCacheDirEnv = "MURE_CACHE_DIR"

// FileCache is a Store backed by one file per fingerprint under a directory — the
// simplest "local database" backend named in §1, useful when a process wants its cache
// to survive a restart without pulling in a database driver.
type FileCache struct {
	dir string
	mu  sync.Mutex // serializes writes to avoid partial-file reads racing a concurrent Put
}

// NewFileCache builds a FileCache rooted at dir. If dir is empty, it resolves
// MURE_CACHE_DIR, falling back to ~/.mure/cache.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		dir = defaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file cache: create %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

func defaultCacheDir() string {
	if dir := os.Getenv(MureCacheDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mure", "cache")
	}
	return filepath.Join(home, ".mure", "cache")
}

func (c *FileCache) path(fingerprint string) string {
	return filepath.Join(c.dir, fingerprint+".json")
}

func (c *FileCache) Has(fingerprint string) bool {
	_, err := os.Stat(c.path(fingerprint))
	return err == nil
}

func (c *FileCache) Get(fingerprint string) (*muretypes.ResponseRecord, bool) {
	data, err := os.ReadFile(c.path(fingerprint))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := segjson.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return e.toResponse(), true
}

func (c *FileCache) Put(fingerprint string, response *muretypes.ResponseRecord) error {
	data, err := segjson.Marshal(toEntry(response))
	if err != nil {
		return fmt.Errorf("file cache: marshal entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := c.path(fingerprint) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file cache: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path(fingerprint)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file cache: rename into place: %w", err)
	}
	return nil
}

// Close is a no-op: FileCache holds no open handles between calls.
func (c *FileCache) Close() error { return nil }
