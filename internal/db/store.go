package db

import (
	"context"
	"errors"

	"github.com/spacesedan/reviewflow/internal/models"
)

// ErrNotFound is returned by ReadAnalysis when a query key has not been
// analyzed yet.
var ErrNotFound = errors.New("not found")

// Store keeps raw search results and derived analyses, both partitioned by
// the query key exactly as the user typed it. Every write replaces whatever
// the key held before in a single atomic step.
type Store interface {
	UpsertSearchResults(ctx context.Context, key string, items []models.SearchResultItem) (int, error)
	ReadSearchResults(ctx context.Context, key string, limit int) ([]models.SearchResultItem, error)
	UpsertAnalysis(ctx context.Context, key string, result models.AnalysisResult) error
	ReadAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error)
	Reset(ctx context.Context) error
	Close() error
}

// AnalysisCache is a fast lookaside copy of stored analyses.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (*models.AnalysisResult, bool, error)
	SetAnalysis(ctx context.Context, key string, result models.AnalysisResult) error
	DeleteAnalysis(ctx context.Context, key string) error
	FlushAnalyses(ctx context.Context) error
}
