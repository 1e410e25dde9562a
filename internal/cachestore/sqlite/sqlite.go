// Package sqlite implements cachestore.Cache on top of a single SQLite
// table keyed by (scope, key), adapted from the teacher's database
// bring-up idiom (PRAGMA tuning, CREATE TABLE IF NOT EXISTS, upsert).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/value"
)

// Cache is a cachestore.Cache backed by a SQLite database file.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if absent) the cache database at path and migrates
// its schema.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if err := createTable(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS cache_entries (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		expires_at TIMESTAMP,
		PRIMARY KEY (scope, key)
	)`)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(scope cachestore.Scope, key string) (value.Value, bool) {
	var raw string
	var expiresAt sql.NullTime
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM cache_entries WHERE scope = ? AND key = ?`,
		string(scope), key,
	).Scan(&raw, &expiresAt)
	if err != nil {
		return value.Null, false
	}
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		_, _ = c.db.Exec(`DELETE FROM cache_entries WHERE scope = ? AND key = ?`, string(scope), key)
		return value.Null, false
	}

	var v value.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return value.Null, false
	}
	return v, true
}

func (c *Cache) Set(scope cachestore.Scope, key string, v value.Value, ttl time.Duration) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return
	}
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	_, _ = c.db.Exec(`
		INSERT INTO cache_entries (scope, key, value, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		string(scope), key, string(encoded), expiresAt,
	)
}

var _ cachestore.Cache = (*Cache)(nil)
