package db

import (
	"fmt"
	"strings"
)

// Dialect captures the few places SQLite and Postgres disagree.
type Dialect struct {
	Name   string
	Schema []string
	// numbered placeholders ($1, $2, ...) instead of '?'
	Numbered bool
}

var SQLiteDialect = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS blog_posts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			query_key    TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT,
			link         TEXT,
			blogger_name TEXT,
			post_date    TEXT,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blog_posts_query_key ON blog_posts(query_key)`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			query_key         TEXT NOT NULL,
			positive_opinions TEXT,
			negative_opinions TEXT,
			summary           TEXT,
			analyzed_count    INTEGER,
			analyzed_at       TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_results_query_key ON analysis_results(query_key)`,
	},
}

var PostgresDialect = Dialect{
	Name:     "postgres",
	Numbered: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS blog_posts (
			id           BIGSERIAL PRIMARY KEY,
			query_key    TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT,
			link         TEXT,
			blogger_name TEXT,
			post_date    TEXT,
			created_at   TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blog_posts_query_key ON blog_posts(query_key)`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id                BIGSERIAL PRIMARY KEY,
			query_key         TEXT NOT NULL,
			positive_opinions TEXT,
			negative_opinions TEXT,
			summary           TEXT,
			analyzed_count    INTEGER,
			analyzed_at       TEXT,
			created_at        TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_results_query_key ON analysis_results(query_key)`,
	},
}

// rebind rewrites '?' placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
