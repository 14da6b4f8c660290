package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const (
	schemaCacheEntries = `
CREATE TABLE IF NOT EXISTS cache_entries (
    bucket TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (bucket, key)
);
`

	selectCacheEntrySQL = `SELECT value FROM cache_entries WHERE bucket = ? AND key = ?`

	upsertCacheEntrySQL = `
		INSERT INTO cache_entries (bucket, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
)

// OpenSQLite opens (or creates) a SQLite file and ensures the cache table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite does not like concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaCacheEntries); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache_entries: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// SQLiteStore is a durable tier backed by a SQLite table, one bucket per cache domain.
type SQLiteStore struct {
	db     *sql.DB
	bucket string
	now    func() time.Time
}

func NewSQLiteStore(db *sql.DB, bucket string) *SQLiteStore {
	return &SQLiteStore{db: db, bucket: bucket, now: time.Now}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, selectCacheEntrySQL, s.bucket, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: sqlite get %s/%s: %v", ErrStore, s.bucket, key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertCacheEntrySQL, s.bucket, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: sqlite set %s/%s: %v", ErrStore, s.bucket, key, err)
	}
	return nil
}
