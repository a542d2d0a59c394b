package db

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, PostgresDialect), mock
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2 LIMIT $3", PostgresDialect.rebind("a = ? AND b = ? LIMIT ?"))
	assert.Equal(t, "a = ?", SQLiteDialect.rebind("a = ?"))
}

func TestPostgresUpsertSearchResults_CommitsOneTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM blog_posts WHERE query_key = \$1`).
		WithArgs("WidgetX").
		WillReturnResult(sqlmock.NewResult(0, 5))
	prep := mock.ExpectPrepare(`INSERT INTO blog_posts \(query_key, title, description, link, blogger_name, post_date\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`)
	prep.ExpectExec().
		WithArgs("WidgetX", "WidgetX review", `"ok"`, "https://b/1", "kim", "20240101").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("WidgetX", "second", "", "https://b/2", "lee", "20240102").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.UpsertSearchResults(context.Background(), "WidgetX", []models.SearchResultItem{
		{Title: "<b>WidgetX</b> review", Description: "&quot;ok&quot;", Link: "https://b/1", BloggerName: "kim", PostDate: "20240101"},
		{Title: "second", Link: "https://b/2", BloggerName: "lee", PostDate: "20240102"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertSearchResults_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM blog_posts WHERE query_key = \$1`).
		WithArgs("WidgetX").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectPrepare(`INSERT INTO blog_posts`).
		ExpectExec().
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.UpsertSearchResults(context.Background(), "WidgetX", []models.SearchResultItem{{Title: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet(), "the delete must be rolled back, never committed")
}

func TestPostgresUpsertAnalysis_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM analysis_results WHERE query_key = \$1`).
		WithArgs("WidgetX").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO analysis_results`).
		WithArgs("WidgetX", "P", "N", "S", 3, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.UpsertAnalysis(context.Background(), "WidgetX", models.AnalysisResult{Positive: "P", Negative: "N", Summary: "S", AnalyzedCount: 3})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadAnalysis_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT positive_opinions, negative_opinions, summary, analyzed_count, analyzed_at\s+FROM analysis_results\s+WHERE query_key = \$1`).
		WithArgs("WidgetX").
		WillReturnRows(sqlmock.NewRows([]string{"positive_opinions", "negative_opinions", "summary", "analyzed_count", "analyzed_at"}))

	_, err := store.ReadAnalysis(context.Background(), "WidgetX")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadSearchResults(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM blog_posts\s+WHERE query_key = \$1\s+ORDER BY id\s+LIMIT \$2`).
		WithArgs("WidgetX", 2).
		WillReturnRows(sqlmock.NewRows([]string{"title", "description", "link", "blogger_name", "post_date"}).
			AddRow("a", "da", "la", "ba", "pa").
			AddRow("b", nil, nil, nil, nil))

	got, err := store.ReadSearchResults(context.Background(), "WidgetX", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.SearchResultItem{
		{Title: "a", Description: "da", Link: "la", BloggerName: "ba", PostDate: "pa"},
		{Title: "b"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadAnalysis_MalformedTimestamp(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM analysis_results\s+WHERE query_key = \$1`).
		WithArgs("WidgetX").
		WillReturnRows(sqlmock.NewRows([]string{"positive_opinions", "negative_opinions", "summary", "analyzed_count", "analyzed_at"}).
			AddRow("P", "N", "S", 3, "yesterday"))

	got, err := store.ReadAnalysis(context.Background(), "WidgetX")
	require.NoError(t, err)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, 3, got.AnalyzedCount)
	assert.True(t, got.AnalyzedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
