package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS catalog_cache (
		cache_key TEXT PRIMARY KEY,
		response_json BLOB NOT NULL,
		cached_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_cache_expires_at ON catalog_cache(expires_at);
`

// SQLiteCache implements the Cache interface using SQLite for persistence.
type SQLiteCache struct {
	db     *sql.DB
	ownsDB bool
	now    func() time.Time
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath and uses it
// as a cache.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	c, err := NewSQLiteCacheFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// NewSQLiteCacheFromDB creates the cache table inside an already open
// database. Close does not close a shared database.
func NewSQLiteCacheFromDB(db *sql.DB) (*SQLiteCache, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &SQLiteCache{db: db, now: time.Now}, nil
}

// Get retrieves data from the cache by key.
// Returns the data and true if found and not expired, otherwise nil and false.
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var data []byte
	var expiresAt int64

	err := c.db.QueryRow(
		"SELECT response_json, expires_at FROM catalog_cache WHERE cache_key = ?",
		key,
	).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}

	if c.now().UnixNano() > expiresAt {
		c.db.Exec("DELETE FROM catalog_cache WHERE cache_key = ?", key)
		return nil, false
	}

	return data, true
}

// Set stores data in the cache with the given key and TTL.
func (c *SQLiteCache) Set(key string, data []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is empty")
	}
	now := c.now()

	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO catalog_cache (cache_key, response_json, cached_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		key, data, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

// PurgeExpired removes every entry whose TTL has elapsed.
func (c *SQLiteCache) PurgeExpired() (int64, error) {
	res, err := c.db.Exec("DELETE FROM catalog_cache WHERE expires_at < ?", c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear removes all entries from the cache.
func (c *SQLiteCache) Clear() error {
	_, err := c.db.Exec("DELETE FROM catalog_cache")
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection if the cache opened it.
func (c *SQLiteCache) Close() error {
	if c.db != nil && c.ownsDB {
		return c.db.Close()
	}
	return nil
}
