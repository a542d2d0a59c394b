package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres connects through the pgx database/sql driver and creates the
// schema if absent.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("[PostgresStore] postgres dsn is required")
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("[PostgresStore] unable to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("[PostgresStore] failed to ping PostgreSQL: %w", err)
	}

	store := NewSQLStore(conn, PostgresDialect)
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("[DB] Connected to PostgreSQL successfully")
	return store, nil
}
