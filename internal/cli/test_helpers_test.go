package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/stretchr/testify/require"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

type fakePipeline struct {
	items    []models.SearchResultItem
	analysis *models.AnalysisResult
	err      error

	lastSearch   processing.SearchRequest
	lastAnalyze  processing.AnalyzeRequest
	lastSnapshot int
	resets       int
}

func (f *fakePipeline) Search(_ context.Context, req processing.SearchRequest) (*processing.SearchOutcome, error) {
	f.lastSearch = req
	if f.err != nil {
		return nil, f.err
	}
	return &processing.SearchOutcome{
		Query:            req.Query,
		Total:            321,
		Items:            f.items,
		Stored:           len(f.items),
		HasPriorAnalysis: f.analysis != nil,
	}, nil
}

func (f *fakePipeline) Analyze(_ context.Context, req processing.AnalyzeRequest) (*processing.AnalyzeOutcome, error) {
	f.lastAnalyze = req
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis != nil && !req.ForceRefresh {
		return &processing.AnalyzeOutcome{Query: req.Query, Result: f.analysis, Cached: true}, nil
	}
	f.analysis = sampleAnalysis(len(f.items))
	return &processing.AnalyzeOutcome{Query: req.Query, Result: f.analysis}, nil
}

func (f *fakePipeline) Snapshot(_ context.Context, key string, limit int) (*processing.Snapshot, error) {
	f.lastSnapshot = limit
	if f.err != nil {
		return nil, f.err
	}
	snap := &processing.Snapshot{Query: key}
	if len(f.items) > 0 {
		snap.State = processing.HasResults
		snap.Items = f.items
	}
	if f.analysis != nil {
		snap.State = processing.HasAnalysis
		snap.Analysis = f.analysis
	}
	return snap, nil
}

func (f *fakePipeline) Reset(context.Context) error {
	f.resets++
	if f.err != nil {
		return f.err
	}
	f.items = nil
	f.analysis = nil
	return nil
}

func sampleItems() []models.SearchResultItem {
	return []models.SearchResultItem{
		{Title: "Galaxy Buds review", Description: "Great sound and a wonderful fit", Link: "https://blog.naver.com/a/1", BloggerName: "alice", PostDate: "20240301"},
		{Title: "Two weeks with the buds", Description: "The case scratches easily", Link: "https://blog.naver.com/b/2", BloggerName: "bob", PostDate: "20240302"},
	}
}

func sampleAnalysis(count int) *models.AnalysisResult {
	return &models.AnalysisResult{
		Positive:      "Sound quality",
		Negative:      "Fragile case",
		Summary:       "Good value",
		AnalyzedCount: count,
		AnalyzedAt:    time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
	}
}
