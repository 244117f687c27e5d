package cache

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/tubetab/tubetab/app/video"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntry() *Entry {
	return &Entry{
		Videos: []video.Record{
			{VideoID: "a", Title: "First", PublishedAt: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)},
			{VideoID: "b", Title: "Second", PublishedAt: time.Date(2025, 8, 19, 10, 0, 0, 0, time.UTC)},
		},
		Category: "shopify",
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !store.IsValid() {
		t.Error("Cache should be valid immediately after Put")
	}

	entry := store.Get()
	if entry == nil {
		t.Fatal("Expected cache entry, got nil")
	}
	if len(entry.Videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(entry.Videos))
	}
	if entry.Videos[0].VideoID != "a" || entry.Videos[1].VideoID != "b" {
		t.Errorf("Video order not preserved: %+v", entry.Videos)
	}
	if entry.Category != "shopify" {
		t.Errorf("Expected category 'shopify', got '%s'", entry.Category)
	}
	if entry.StoredAt.IsZero() {
		t.Error("StoredAt should be populated on read")
	}
}

func TestStore_MissingEntry(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if store.IsValid() {
		t.Error("Empty cache should not be valid")
	}
	if entry := store.Get(); entry != nil {
		t.Errorf("Expected nil entry from empty cache, got %+v", entry)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Backdate the stored timestamp past the TTL
	expired := time.Now().Add(-2 * time.Hour).UnixMilli()
	if err := store.put(timestampKey, strconv.FormatInt(expired, 10)); err != nil {
		t.Fatalf("Failed to backdate timestamp: %v", err)
	}

	if store.IsValid() {
		t.Error("Cache older than TTL should be invalid")
	}

	// A stale entry is still readable for degraded fallback
	if entry := store.Get(); entry == nil {
		t.Error("Stale entry should still be retrievable")
	}
}

func TestStore_CorruptPayload(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.put(videosKey, "this is not json"); err != nil {
		t.Fatalf("Failed to inject corrupt payload: %v", err)
	}
	if err := store.put(timestampKey, strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		t.Fatalf("Failed to inject timestamp: %v", err)
	}

	if entry := store.Get(); entry != nil {
		t.Errorf("Corrupt payload should read as absent, got %+v", entry)
	}

	// The corrupt entry is purged, not left behind
	if _, ok, _ := store.getValue(videosKey); ok {
		t.Error("Corrupt payload should have been purged")
	}
	if store.IsValid() {
		t.Error("Cache should be invalid after purge")
	}
}

func TestStore_CorruptTimestamp(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.put(timestampKey, "not-a-number"); err != nil {
		t.Fatalf("Failed to inject timestamp: %v", err)
	}

	if store.IsValid() {
		t.Error("Unparseable timestamp should make the cache invalid")
	}
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if store.IsValid() {
		t.Error("Cleared cache should be invalid")
	}
	if entry := store.Get(); entry != nil {
		t.Errorf("Cleared cache should be empty, got %+v", entry)
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t, time.Hour)

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("First put failed: %v", err)
	}

	second := &Entry{Videos: []video.Record{{VideoID: "c", Title: "Third"}}}
	if err := store.Put(second); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	entry := store.Get()
	if entry == nil {
		t.Fatal("Expected entry after overwrite")
	}
	if len(entry.Videos) != 1 || entry.Videos[0].VideoID != "c" {
		t.Errorf("Expected overwritten entry, got %+v", entry.Videos)
	}
}

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t, time.Hour)

	stats := store.Stats()
	if stats["valid"] != false || stats["videos"] != 0 {
		t.Errorf("Unexpected stats for empty cache: %v", stats)
	}

	if err := store.Put(testEntry()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats = store.Stats()
	if stats["valid"] != true {
		t.Error("Stats should report a valid cache after Put")
	}
	if stats["videos"] != 2 {
		t.Errorf("Expected 2 videos in stats, got %v", stats["videos"])
	}
}
