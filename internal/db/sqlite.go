package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) the SQLite file at path and makes
// sure the schema exists. ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("[SQLiteStore] create data dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("[SQLiteStore] open %s: %w", path, err)
	}
	// one long-lived handle; also keeps ":memory:" on a single database
	conn.SetMaxOpenConns(1)

	store := NewSQLStore(conn, SQLiteDialect)
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("[SQLiteStore] Opened database", slog.String("path", path))
	return store, nil
}
