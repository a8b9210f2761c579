package markov

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetupCacheSchema initializes the cache table in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupCacheSchema(db *sql.DB) error {
	const schemaCache = `
CREATE TABLE IF NOT EXISTS markov_cache (
    fingerprint    TEXT PRIMARY KEY,
    source         TEXT NOT NULL,
    format_version INTEGER NOT NULL,
    entry          BLOB NOT NULL,
    created_at     INTEGER NOT NULL
);
`
	if _, err := db.Exec(schemaCache); err != nil {
		return fmt.Errorf("could not create cache schema: %w", err)
	}
	return nil
}

// SQLiteCache stores cache entries as blobs in a SQLite database, one row per
// fingerprint. Entries carry the same header and payload as FileCache files;
// replacing one happens inside a transaction, so readers see either the old or
// the new row.
type SQLiteCache struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtPut    *sql.Stmt
	stmtList   *sql.Stmt
	stmtDelete *sql.Stmt
}

// NewSQLiteCache prepares the statements used by the cache. SetupCacheSchema
// must have been called on db.
func NewSQLiteCache(db *sql.DB) (*SQLiteCache, error) {
	stmtGet, err := db.Prepare(`SELECT entry FROM markov_cache WHERE fingerprint = ?;`)
	if err != nil {
		return nil, err
	}

	stmtPut, err := db.Prepare(`
INSERT INTO markov_cache (fingerprint, source, format_version, entry, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET
    source = excluded.source,
    format_version = excluded.format_version,
    entry = excluded.entry,
    created_at = excluded.created_at;`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT fingerprint, source, format_version, length(entry), created_at FROM markov_cache ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM markov_cache;`)
	if err != nil {
		return nil, err
	}

	return &SQLiteCache{
		db:         db,
		stmtGet:    stmtGet,
		stmtPut:    stmtPut,
		stmtList:   stmtList,
		stmtDelete: stmtDelete,
	}, nil
}

// Close releases the prepared statements. The database itself is left open.
func (c *SQLiteCache) Close() {
	_ = c.stmtGet.Close()
	_ = c.stmtPut.Close()
	_ = c.stmtList.Close()
	_ = c.stmtDelete.Close()
}

// Load reads and validates the entry for key.
func (c *SQLiteCache) Load(ctx context.Context, key CacheKey) (*Model, error) {
	var entry []byte
	err := c.stmtGet.QueryRowContext(ctx, key.Fingerprint.String()).Scan(&entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("could not query cache entry: %w", err)
	}
	return DecodeEntry(bytes.NewReader(entry), key.Fingerprint)
}

// Store writes the entry for key, replacing any existing one.
func (c *SQLiteCache) Store(ctx context.Context, key CacheKey, model *Model) error {
	var buf bytes.Buffer
	if err := EncodeEntry(&buf, key.Fingerprint, model); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.StmtContext(ctx, c.stmtPut).ExecContext(ctx,
		key.Fingerprint.String(), key.Source, FormatVersion, buf.Bytes(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("could not store cache entry: %w", err)
	}
	return tx.Commit()
}

// Entries lists the stored entries, oldest first.
func (c *SQLiteCache) Entries(ctx context.Context) ([]CacheEntryInfo, error) {
	rows, err := c.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var infos []CacheEntryInfo
	for rows.Next() {
		var info CacheEntryInfo
		var created int64
		if err = rows.Scan(&info.Fingerprint, &info.Source, &info.FormatVersion, &info.Size, &created); err != nil {
			return nil, err
		}
		info.Location = "sqlite:" + info.Fingerprint[:16]
		info.ModTime = time.Unix(created, 0)
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// Clear removes every entry, returning the number removed.
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	res, err := c.stmtDelete.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
