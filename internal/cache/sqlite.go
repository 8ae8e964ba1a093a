package cache

import (
	"database/sql"
	"fmt"

	segjson "github.com/segmentio/encoding/json"
	"github.com/severinsimmler/mure/pkg/muretypes"
	_ "modernc.org/sqlite"
)

// SQLiteCache is a Store backed by a single WAL-mode SQLite table, keyed by
// fingerprint. It's the "local database" backend named in §1, for callers who want
// durability without managing their own connection pool.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (or creates) a cache database at path, switches it to WAL mode,
// and ensures its schema exists with CREATE TABLE IF NOT EXISTS.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache: open %s: %w", path, err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite cache: set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS response_cache (
			fingerprint TEXT PRIMARY KEY,
			entry       BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite cache: create table: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Has(fingerprint string) bool {
	var one int
	err := c.db.QueryRow(`SELECT 1 FROM response_cache WHERE fingerprint = ?`, fingerprint).Scan(&one)
	return err == nil
}

func (c *SQLiteCache) Get(fingerprint string) (*muretypes.ResponseRecord, bool) {
	var data []byte
	err := c.db.QueryRow(`SELECT entry FROM response_cache WHERE fingerprint = ?`, fingerprint).Scan(&data)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := segjson.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return e.toResponse(), true
}

func (c *SQLiteCache) Put(fingerprint string, response *muretypes.ResponseRecord) error {
	data, err := segjson.Marshal(toEntry(response))
	if err != nil {
		return fmt.Errorf("sqlite cache: marshal entry: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO response_cache (fingerprint, entry) VALUES (?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET entry = excluded.entry
	`, fingerprint, data)
	if err != nil {
		return fmt.Errorf("sqlite cache: upsert %s: %w", fingerprint, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
