package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/normalize"
)

// SQLStore implements Store on database/sql. It backs both the SQLite and
// the Postgres deployments; only placeholders and DDL differ.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// EnsureSchema creates both tables if they are absent. There is no
// versioning beyond that.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("[%sStore] create schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// UpsertSearchResults replaces every stored post for key with items. The
// delete and the inserts share one transaction, so an interrupted write
// leaves the previous rows in place.
func (s *SQLStore) UpsertSearchResults(ctx context.Context, key string, items []models.SearchResultItem) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM blog_posts WHERE query_key = ?`), key); err != nil {
		return 0, fmt.Errorf("delete blog posts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO blog_posts (query_key, title, description, link, blogger_name, post_date)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, item := range items {
		item = normalize.Result(item)
		if _, err := stmt.ExecContext(ctx, key, item.Title, item.Description, item.Link, item.BloggerName, item.PostDate); err != nil {
			return 0, fmt.Errorf("insert blog post: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit blog posts: %w", err)
	}

	slog.Info("[SQLStore] Stored blog posts",
		slog.String("dialect", s.dialect.Name),
		slog.String("query_key", key),
		slog.Int("count", count))
	return count, nil
}

// ReadSearchResults returns at most limit posts for key in insertion order.
func (s *SQLStore) ReadSearchResults(ctx context.Context, key string, limit int) ([]models.SearchResultItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT title, description, link, blogger_name, post_date
		FROM blog_posts
		WHERE query_key = ?
		ORDER BY id
		LIMIT ?`), key, limit)
	if err != nil {
		return nil, fmt.Errorf("query blog posts: %w", err)
	}
	defer rows.Close()

	var items []models.SearchResultItem
	for rows.Next() {
		var (
			item                                   models.SearchResultItem
			description, link, bloggerName, posted sql.NullString
		)
		if err := rows.Scan(&item.Title, &description, &link, &bloggerName, &posted); err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		item.Description = description.String
		item.Link = link.String
		item.BloggerName = bloggerName.String
		item.PostDate = posted.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertAnalysis replaces the single analysis row for key.
func (s *SQLStore) UpsertAnalysis(ctx context.Context, key string, result models.AnalysisResult) error {
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM analysis_results WHERE query_key = ?`), key); err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO analysis_results (query_key, positive_opinions, negative_opinions, summary, analyzed_count, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		key, result.Positive, result.Negative, result.Summary, result.AnalyzedCount,
		result.AnalyzedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit analysis: %w", err)
	}

	slog.Info("[SQLStore] Stored analysis",
		slog.String("dialect", s.dialect.Name),
		slog.String("query_key", key),
		slog.Int("analyzed_count", result.AnalyzedCount))
	return nil
}

// ReadAnalysis returns ErrNotFound when key has never been analyzed.
func (s *SQLStore) ReadAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error) {
	var (
		r                           models.AnalysisResult
		positive, negative, summary sql.NullString
		count                       sql.NullInt64
		analyzedAt                  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT positive_opinions, negative_opinions, summary, analyzed_count, analyzed_at
		FROM analysis_results
		WHERE query_key = ?
		ORDER BY id DESC
		LIMIT 1`), key).Scan(&positive, &negative, &summary, &count, &analyzedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	r.Positive = positive.String
	r.Negative = negative.String
	r.Summary = summary.String
	r.AnalyzedCount = int(count.Int64)
	if analyzedAt.Valid && analyzedAt.String != "" {
		at, err := time.Parse(time.RFC3339Nano, analyzedAt.String)
		if err != nil {
			slog.Warn("[SQLStore] Unreadable analyzed_at, leaving it unset",
				slog.String("query_key", key),
				slog.String("analyzed_at", analyzedAt.String),
				slog.String("error", err.Error()))
		} else {
			r.AnalyzedAt = at
		}
	}
	return &r, nil
}

// Reset empties both tables.
func (s *SQLStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"blog_posts", "analysis_results"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	slog.Warn("[SQLStore] All stored posts and analyses removed", slog.String("dialect", s.dialect.Name))
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
