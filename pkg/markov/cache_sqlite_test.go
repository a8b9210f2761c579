package markov

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestCacheDB creates a new SQLite database and an SQLiteCache for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestCacheDB(t *testing.T) *SQLiteCache {
	dbFile := filepath.Join(t.TempDir(), "cache.db")
	db, err := sql.Open("sqlite", dbFile+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupCacheSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	// Running it twice must be harmless.
	if err := SetupCacheSchema(db); err != nil {
		t.Fatalf("SetupCacheSchema() is not idempotent: %v", err)
	}

	cache, err := NewSQLiteCache(db)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	cache := setupTestCacheDB(t)

	p := Parameters{Order: 2, Prior: 0.1, Backoff: true}
	model := trainString(t, namesCorpus, p)
	key := CacheKey{Source: "names.txt", Fingerprint: ComputeFingerprint([]byte(namesCorpus), p, DefaultDelimiter)}

	if _, err := cache.Load(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Load() on empty cache error = %v, want ErrCacheMiss", err)
	}
	if err := cache.Store(ctx, key, model); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	// Storing again replaces the row.
	if err := cache.Store(ctx, key, model); err != nil {
		t.Fatalf("second Store() error = %v", err)
	}

	loaded, err := cache.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !model.Equal(loaded) {
		t.Error("loaded model differs from stored model")
	}

	entries, err := cache.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(entries))
	}
	if e := entries[0]; e.Source != "names.txt" || e.Fingerprint != key.Fingerprint.String() || e.FormatVersion != FormatVersion {
		t.Errorf("unexpected entry %+v", e)
	}

	removed, err := cache.Clear(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Clear() = %d, %v; want 1, nil", removed, err)
	}
	if _, err := cache.Load(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Load() after Clear() error = %v, want ErrCacheMiss", err)
	}
}
