package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Store is an interface for a cache store.
// It stores and retrieves entries, which represent serialized HTTP responses.
//
// Implementations must be thread-safe!
// Each call is atomic for its key, but there are no transactions across calls.
type Store interface {
	// Get returns the entry for the given key, if it exists.
	// Stale entries are returned as well, use Entry.Fresh to check.
	// A missing entry is not an error: it returns false and a nil error.
	Get(key string) (Entry, bool, error)
	// Put stores the entry under the given key, replacing any previous entry.
	Put(key string, entry Entry) error
	// Remove deletes the entry for the given key.
	// Removing a missing key is not an error.
	Remove(key string) error
	// Keys calls the given callback for each key.
	Keys(cb func(string)) error
	// Close releases the resources held by the store.
	Close() error
}

// Entry is a stored response.
// The cache only moves entries around, the contents of Bytes are opaque to it.
type Entry struct {
	Bytes []byte
	// Expires is the time after which the entry is stale.
	// A zero value means the entry is stale as soon as it is stored.
	Expires time.Time
	// StoredAt is the time the entry was written.
	StoredAt time.Time
}

// Fresh returns whether the entry can be used without going to the network.
func (e Entry) Fresh(now time.Time) bool {
	return !e.Expires.IsZero() && now.Before(e.Expires)
}

type MemCache struct {
	mutex *sync.RWMutex
	db    map[string]Entry
}

func NewMemCache() MemCache {
	return MemCache{
		mutex: &sync.RWMutex{},
		db:    make(map[string]Entry),
	}
}

func (m MemCache) Get(key string) (Entry, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	return entry, ok, nil
}

func (m MemCache) Put(key string, entry Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = entry
	return nil
}

func (m MemCache) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
	return nil
}

func (m MemCache) Keys(cb func(string)) error {
	m.mutex.RLock()
	keys := make([]string, 0, len(m.db))
	for key := range m.db {
		keys = append(keys, key)
	}
	m.mutex.RUnlock()
	// callback runs unlocked so it may call back into the cache
	for _, key := range keys {
		cb(key)
	}
	return nil
}

func (m MemCache) Close() error {
	return nil
}

type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteCache opens (or creates) the cache database in the given file.
// Use "file::memory:?cache=shared" for an in-memory database.
func NewSQLiteCache(filename string) (SQLiteCache, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return SQLiteCache{}, fmt.Errorf("could not open cache db %s: %w", filename, err)
	}
	statements := []string{
		"CREATE TABLE IF NOT EXISTS cache (key TEXT PRIMARY KEY, expires INTEGER, stored INTEGER, bytes BLOB)",
		"CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return SQLiteCache{}, fmt.Errorf("could not initialize cache db: %w", err)
		}
	}
	return SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
	}, nil
}

func (s SQLiteCache) Get(key string) (Entry, bool, error) {
	var expires, stored int64
	var entry Entry
	err := s.db.QueryRow("SELECT expires, stored, bytes FROM cache WHERE key = ?", key).Scan(&expires, &stored, &entry.Bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	entry.Expires = fromUnix(expires)
	entry.StoredAt = fromUnix(stored)
	return entry, true, nil
}

func (s SQLiteCache) Put(key string, entry Entry) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO cache (key, expires, stored, bytes) VALUES (?, ?, ?, ?)",
		key, toUnix(entry.Expires), toUnix(entry.StoredAt), entry.Bytes)
	return err
}

func (s SQLiteCache) Remove(key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

func (s SQLiteCache) Keys(cb func(string)) error {
	rows, err := s.db.Query("SELECT key FROM cache ORDER BY key")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return err
		}
		cb(key)
	}
	return rows.Err()
}

func (s SQLiteCache) Close() error {
	return s.db.Close()
}

// zero times are stored as 0 so they survive the round trip
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnix(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
