package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
)

// CachedStore puts an AnalysisCache in front of a Store's analysis reads.
// The backing store stays the source of truth: cache errors are logged and
// treated as misses, and the cache is only written after the store commits.
type CachedStore struct {
	Store
	cache AnalysisCache
}

func NewCachedStore(store Store, cache AnalysisCache) *CachedStore {
	return &CachedStore{Store: store, cache: cache}
}

func (c *CachedStore) ReadAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error) {
	cached, ok, err := c.cache.GetAnalysis(ctx, key)
	if err != nil {
		slog.Warn("[CachedStore] cache read failed, falling back to store",
			slog.String("query_key", key),
			slog.String("error", err.Error()))
	}
	if ok {
		return cached, nil
	}

	result, err := c.Store.ReadAnalysis(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetAnalysis(ctx, key, *result); err != nil {
		slog.Warn("[CachedStore] cache fill failed",
			slog.String("query_key", key),
			slog.String("error", err.Error()))
	}
	return result, nil
}

func (c *CachedStore) UpsertAnalysis(ctx context.Context, key string, result models.AnalysisResult) error {
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now().UTC()
	}
	if err := c.Store.UpsertAnalysis(ctx, key, result); err != nil {
		return err
	}

	if err := c.cache.SetAnalysis(ctx, key, result); err != nil {
		slog.Warn("[CachedStore] cache refresh failed, invalidating",
			slog.String("query_key", key),
			slog.String("error", err.Error()))
		// a stale entry would resurrect the replaced analysis
		if delErr := c.cache.DeleteAnalysis(ctx, key); delErr != nil {
			return fmt.Errorf("[CachedStore] analysis stored but cache still holds the previous one: %w", delErr)
		}
	}
	return nil
}

func (c *CachedStore) Reset(ctx context.Context) error {
	if err := c.Store.Reset(ctx); err != nil {
		return err
	}
	if err := c.cache.FlushAnalyses(ctx); err != nil {
		slog.Error("[CachedStore] store reset but cache flush failed", slog.String("error", err.Error()))
		return fmt.Errorf("[CachedStore] store reset but cached analyses remain: %w", err)
	}
	return nil
}
