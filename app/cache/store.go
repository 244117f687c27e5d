package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tubetab/tubetab/app/video"
)

// The cache is two key-value rows: the serialized video payload and a
// numeric-string timestamp, matching the storage shape the rest of the system
// expects. Nothing else is persisted.
const (
	videosKey    = "videos"
	timestampKey = "videos_timestamp"
)

// Entry is the stored aggregation result.
type Entry struct {
	Videos   []video.Record `json:"videos"`
	Category string         `json:"category,omitempty"`
	StoredAt time.Time      `json:"-"`
}

// Store is the sqlite-backed key-value cache. A missing, malformed or
// expired entry is never an error to callers; it is simply absent.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

func NewStore(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, ttl: ttl}, nil
}

// IsValid reports whether a stored timestamp exists and is younger than the
// TTL. A missing or unparseable timestamp counts as invalid.
func (s *Store) IsValid() bool {
	raw, ok, err := s.getValue(timestampKey)
	if err != nil || !ok {
		return false
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}

	storedAt := time.UnixMilli(millis)
	return time.Since(storedAt) < s.ttl
}

// Get returns the stored entry, or nil when absent. Malformed stored data is
// purged and reported as absent, never as an error.
func (s *Store) Get() *Entry {
	raw, ok, err := s.getValue(videosKey)
	if err != nil {
		slog.Warn("Cache read failed, treating as empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		slog.Warn("Corrupt cache payload, purging", "error", err)
		s.Clear()
		return nil
	}
	if entry.Videos == nil {
		slog.Warn("Cache payload missing video list, purging")
		s.Clear()
		return nil
	}

	if rawTS, ok, err := s.getValue(timestampKey); err == nil && ok {
		if millis, err := strconv.ParseInt(rawTS, 10, 64); err == nil {
			entry.StoredAt = time.UnixMilli(millis)
		}
	}

	return &entry
}

// Put stores an entry and its timestamp atomically. A failed write never
// leaves a partial entry behind.
func (s *Store) Put(entry *Entry) error {
	entry.StoredAt = time.Now()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}

	millis := strconv.FormatInt(entry.StoredAt.UnixMilli(), 10)
	for key, value := range map[string]string{videosKey: string(payload), timestampKey: millis} {
		if _, err := tx.Exec(upsertSQL, key, value); err != nil {
			tx.Rollback()
			s.Clear()
			return fmt.Errorf("failed to write cache key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.Clear()
		return fmt.Errorf("failed to commit cache write: %w", err)
	}

	slog.Debug("Cache updated", "videos", len(entry.Videos), "category", entry.Category)
	return nil
}

// Clear removes the entry unconditionally.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM cache_entries WHERE key IN (?, ?)", videosKey, timestampKey); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats reports cache state for the stats endpoint.
func (s *Store) Stats() map[string]any {
	stats := map[string]any{
		"valid": s.IsValid(),
	}

	if entry := s.Get(); entry != nil {
		stats["videos"] = len(entry.Videos)
		stats["stored_at"] = entry.StoredAt.UTC().Format(time.RFC3339)
		stats["age_seconds"] = int(time.Since(entry.StoredAt).Seconds())
	} else {
		stats["videos"] = 0
	}

	return stats
}

func (s *Store) Close() error {
	return s.db.Close()
}

const upsertSQL = `
INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (s *Store) getValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// put is used by tests to inject raw values.
func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(upsertSQL, key, value)
	return err
}
