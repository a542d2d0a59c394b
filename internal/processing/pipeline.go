package processing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/db"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/monitoring"
	"github.com/spacesedan/reviewflow/internal/normalize"
)

const DEFAULT_ANALYZE_LIMIT = clients.DEFAULT_DISPLAY

type Searcher interface {
	SearchBlog(ctx context.Context, r clients.BlogSearchRequest) (*models.NaverBlogSearchResponse, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, key string, items []models.SearchResultItem) (*models.AnalysisResult, error)
}

// EventPublisher receives a notification after every successful store write.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

type SearchRequest struct {
	Query string
	Count int
	Start int
	Sort  models.SortMode
}

type SearchOutcome struct {
	Query string
	Total int
	Items []models.SearchResultItem
	// Stored is the number of rows written for Query.
	Stored int
	// HasPriorAnalysis reports an analysis left over from an earlier
	// search. It was computed from the old posts.
	HasPriorAnalysis bool
}

type AnalyzeRequest struct {
	Query        string
	Limit        int
	ForceRefresh bool
}

type AnalyzeOutcome struct {
	Query  string
	Result *models.AnalysisResult
	// Cached is true when the stored analysis was returned without calling
	// the model.
	Cached bool
}

type Snapshot struct {
	Query    string
	State    State
	Items    []models.SearchResultItem
	Analysis *models.AnalysisResult
}

// Pipeline runs search and analysis requests against one store. Calls are
// synchronous and nothing is retried.
type Pipeline struct {
	searcher Searcher
	analyzer Analyzer
	store    db.Store

	Events  EventPublisher
	Metrics *monitoring.Metrics
}

func NewPipeline(searcher Searcher, analyzer Analyzer, store db.Store) *Pipeline {
	return &Pipeline{searcher: searcher, analyzer: analyzer, store: store}
}

// Search always goes to Naver. An empty page leaves the store untouched; any
// other page replaces what was stored for the query.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) (*SearchOutcome, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, stageErr(STAGE_SEARCH, ErrEmptyQuery)
	}

	resp, err := p.searcher.SearchBlog(ctx, clients.BlogSearchRequest{
		Query: req.Query,
		Count: req.Count,
		Start: req.Start,
		Sort:  req.Sort,
	})
	if err != nil {
		p.Metrics.ObserveSearch(failureOutcome(err))
		slog.Error("[Pipeline] Search failed",
			slog.String("query_key", req.Query),
			slog.String("error", err.Error()))
		return nil, stageErr(STAGE_SEARCH, err)
	}
	if len(resp.Items) == 0 {
		p.Metrics.ObserveSearch(monitoring.OUTCOME_EMPTY)
		slog.Info("[Pipeline] Search returned no posts", slog.String("query_key", req.Query))
		return nil, stageErr(STAGE_SEARCH, ErrEmptyResult)
	}

	items := normalize.Items(resp.Items)
	stored, err := p.store.UpsertSearchResults(ctx, req.Query, items)
	if err != nil {
		p.Metrics.ObserveSearch(monitoring.OUTCOME_FAILED)
		return nil, stageErr(STAGE_STORE, err)
	}
	p.Metrics.ObserveSearch(monitoring.OUTCOME_OK)
	p.Metrics.AddStored(stored)

	hasPrior := false
	if _, err := p.store.ReadAnalysis(ctx, req.Query); err == nil {
		hasPrior = true
		slog.Info("[Pipeline] Keeping analysis computed from the previous search",
			slog.String("query_key", req.Query))
	} else if !errors.Is(err, db.ErrNotFound) {
		slog.Warn("[Pipeline] Could not check for a prior analysis",
			slog.String("query_key", req.Query),
			slog.String("error", err.Error()))
	}

	p.publish(ctx, models.EventSearchStored, req.Query, stored)

	return &SearchOutcome{
		Query:            req.Query,
		Total:            resp.Total,
		Items:            items,
		Stored:           stored,
		HasPriorAnalysis: hasPrior,
	}, nil
}

// Analyze returns the stored analysis unless ForceRefresh is set. Otherwise
// it sends up to Limit stored posts to the model and replaces the stored
// analysis only when the model produced a complete one.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeOutcome, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, stageErr(STAGE_ANALYSIS, ErrEmptyQuery)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DEFAULT_ANALYZE_LIMIT
	}

	if !req.ForceRefresh {
		existing, err := p.store.ReadAnalysis(ctx, req.Query)
		switch {
		case err == nil:
			p.Metrics.ObserveAnalysis(monitoring.OUTCOME_CACHED)
			slog.Info("[Pipeline] Returning stored analysis", slog.String("query_key", req.Query))
			return &AnalyzeOutcome{Query: req.Query, Result: existing, Cached: true}, nil
		case !errors.Is(err, db.ErrNotFound):
			p.Metrics.ObserveAnalysis(monitoring.OUTCOME_FAILED)
			return nil, stageErr(STAGE_STORE, err)
		}
	}

	items, err := p.store.ReadSearchResults(ctx, req.Query, limit)
	if err != nil {
		p.Metrics.ObserveAnalysis(monitoring.OUTCOME_FAILED)
		return nil, stageErr(STAGE_STORE, err)
	}
	if len(items) == 0 {
		p.Metrics.ObserveAnalysis(monitoring.OUTCOME_EMPTY)
		return nil, stageErr(STAGE_ANALYSIS, ErrEmptyResult)
	}

	start := time.Now()
	result, err := p.analyzer.Analyze(ctx, req.Query, items)
	if err != nil {
		p.Metrics.ObserveAnalysis(failureOutcome(err))
		slog.Error("[Pipeline] Analysis failed, stored analysis left as is",
			slog.String("query_key", req.Query),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, stageErr(STAGE_ANALYSIS, err)
	}

	if err := p.store.UpsertAnalysis(ctx, req.Query, *result); err != nil {
		p.Metrics.ObserveAnalysis(monitoring.OUTCOME_FAILED)
		return nil, stageErr(STAGE_STORE, err)
	}
	p.Metrics.ObserveAnalysis(monitoring.OUTCOME_OK)
	slog.Info("[Pipeline] Stored new analysis",
		slog.String("query_key", req.Query),
		slog.Int("analyzed_count", result.AnalyzedCount),
		slog.Duration("elapsed", time.Since(start)))

	p.publish(ctx, models.EventAnalysisStored, req.Query, result.AnalyzedCount)

	return &AnalyzeOutcome{Query: req.Query, Result: result}, nil
}

func (p *Pipeline) State(ctx context.Context, key string) (State, error) {
	if _, err := p.store.ReadAnalysis(ctx, key); err == nil {
		return HasAnalysis, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return NoData, stageErr(STAGE_STORE, err)
	}

	items, err := p.store.ReadSearchResults(ctx, key, 1)
	if err != nil {
		return NoData, stageErr(STAGE_STORE, err)
	}
	if len(items) > 0 {
		return HasResults, nil
	}
	return NoData, nil
}

// Snapshot reads what is stored for key for display.
func (p *Pipeline) Snapshot(ctx context.Context, key string, limit int) (*Snapshot, error) {
	if limit <= 0 {
		limit = clients.MAX_DISPLAY
	}
	snap := &Snapshot{Query: key}

	items, err := p.store.ReadSearchResults(ctx, key, limit)
	if err != nil {
		return nil, stageErr(STAGE_STORE, err)
	}
	snap.Items = items
	if len(items) > 0 {
		snap.State = HasResults
	}

	analysis, err := p.store.ReadAnalysis(ctx, key)
	switch {
	case err == nil:
		snap.Analysis = analysis
		snap.State = HasAnalysis
	case !errors.Is(err, db.ErrNotFound):
		return nil, stageErr(STAGE_STORE, err)
	}
	return snap, nil
}

// Reset wipes every stored post and analysis.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.store.Reset(ctx); err != nil {
		return stageErr(STAGE_STORE, err)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, eventType, key string, count int) {
	if p.Events == nil {
		return
	}
	err := p.Events.Publish(ctx, key, models.PipelineEvent{
		Type:       eventType,
		QueryKey:   key,
		ItemCount:  count,
		OccurredAt: time.Now().UTC(),
	})
	p.Metrics.ObserveEvent(err)
	if err != nil {
		slog.Warn("[Pipeline] Failed to publish event",
			slog.String("type", eventType),
			slog.String("query_key", key),
			slog.String("error", err.Error()))
	}
}

func failureOutcome(err error) string {
	if errors.Is(err, clients.ErrMissingCredential) {
		return monitoring.OUTCOME_NO_CREDS
	}
	return monitoring.OUTCOME_FAILED
}
