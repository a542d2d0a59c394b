package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCommand_PrintsStoredPosts(t *testing.T) {
	p := &fakePipeline{items: sampleItems()}
	globals := &GlobalFlags{}
	globals.DefaultCount = 30
	globals.DefaultSort = "sim"
	var out bytes.Buffer
	cmd := &SearchCommand{Start: 1, globals: globals, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{"galaxy", "buds"}))

	assert.Equal(t, "galaxy buds", p.lastSearch.Query)
	assert.Equal(t, 30, p.lastSearch.Count)
	assert.Equal(t, models.SortBySimilarity, p.lastSearch.Sort)
	assert.Contains(t, out.String(), `Stored 2 of 321 posts for "galaxy buds"`)
	assert.Contains(t, out.String(), "Galaxy Buds review")
	assert.Contains(t, out.String(), "Lexical sentiment:")
	assert.NotContains(t, out.String(), "earlier search")
}

func TestSearchCommand_FlagsStaleAnalysis(t *testing.T) {
	p := &fakePipeline{items: sampleItems(), analysis: sampleAnalysis(2)}
	var out bytes.Buffer
	cmd := &SearchCommand{globals: &GlobalFlags{}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{"buds"}))
	assert.Contains(t, out.String(), "analyze --force")
}

func TestSearchCommand_JSON(t *testing.T) {
	p := &fakePipeline{items: sampleItems()}
	var out bytes.Buffer
	cmd := &SearchCommand{globals: &GlobalFlags{JSON: true}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{"buds"}))

	var got struct {
		Query  string                    `json:"query"`
		Total  int                       `json:"total"`
		Stored int                       `json:"stored"`
		Items  []models.SearchResultItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "buds", got.Query)
	assert.Equal(t, 321, got.Total)
	assert.Equal(t, 2, got.Stored)
	assert.Len(t, got.Items, 2)
}

func TestSearchCommand_UserMessageOnFailure(t *testing.T) {
	cause := &processing.StageError{Stage: processing.STAGE_SEARCH, Err: fmt.Errorf("naver: %w", clients.ErrMissingCredential)}
	p := &fakePipeline{err: cause}
	cmd := &SearchCommand{globals: &GlobalFlags{}, pipeline: p, out: &bytes.Buffer{}}

	err := cmd.Execute([]string{"buds"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, clients.ErrMissingCredential))
	assert.Equal(t, processing.UserMessage(cause), err.Error())
}

func TestAnalyzeCommand_CachedThenForced(t *testing.T) {
	p := &fakePipeline{items: sampleItems(), analysis: sampleAnalysis(1)}
	var out bytes.Buffer
	cmd := &AnalyzeCommand{Limit: 50, globals: &GlobalFlags{}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{"buds"}))
	assert.Contains(t, out.String(), "Stored analysis")
	assert.Contains(t, out.String(), "Analyzed 1 posts")

	out.Reset()
	cmd.Force = true
	require.NoError(t, cmd.Execute([]string{"buds"}))
	assert.True(t, p.lastAnalyze.ForceRefresh)
	assert.Equal(t, 50, p.lastAnalyze.Limit)
	assert.Contains(t, out.String(), "New analysis")
	assert.Contains(t, out.String(), "Analyzed 2 posts")
	assert.Contains(t, out.String(), "Fragile case")
}

func TestAnalyzeCommand_EmptyResult(t *testing.T) {
	p := &fakePipeline{err: &processing.StageError{Stage: processing.STAGE_ANALYSIS, Err: processing.ErrEmptyResult}}
	cmd := &AnalyzeCommand{globals: &GlobalFlags{}, pipeline: p, out: &bytes.Buffer{}}

	err := cmd.Execute([]string{"buds"})
	require.Error(t, err)
	assert.ErrorIs(t, err, processing.ErrEmptyResult)
	assert.Contains(t, err.Error(), "Run a search first")
}

func TestShowCommand(t *testing.T) {
	p := &fakePipeline{items: sampleItems(), analysis: sampleAnalysis(2)}
	var out bytes.Buffer
	cmd := &ShowCommand{Limit: 5, globals: &GlobalFlags{}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{"buds"}))
	assert.Equal(t, 5, p.lastSnapshot)
	assert.Contains(t, out.String(), `2 stored posts for "buds"`)
	assert.Contains(t, out.String(), "Good value")
}

func TestShowCommand_NothingStored(t *testing.T) {
	var out bytes.Buffer
	cmd := &ShowCommand{globals: &GlobalFlags{JSON: true}, pipeline: &fakePipeline{}, out: &out}

	require.NoError(t, cmd.Execute([]string{"buds"}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "no_data", got["state"])
}

func TestShowCommand_RequiresQuery(t *testing.T) {
	cmd := &ShowCommand{globals: &GlobalFlags{}, pipeline: &fakePipeline{}, out: &bytes.Buffer{}}
	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, processing.ErrEmptyQuery)
}

func TestResetCommand(t *testing.T) {
	p := &fakePipeline{items: sampleItems(), analysis: sampleAnalysis(2)}
	var out bytes.Buffer
	cmd := &ResetCommand{Yes: true, globals: &GlobalFlags{}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute(nil))
	assert.Equal(t, 1, p.resets)
	assert.Nil(t, p.analysis)
	assert.Contains(t, out.String(), "deleted")
}

type fakeEvents struct {
	events    []models.PipelineEvent
	committed []int64
	err       error
}

func (f *fakeEvents) Next(ctx context.Context) (*models.PipelineEvent, *kafka.Message, error) {
	if len(f.events) == 0 {
		if f.err != nil {
			return nil, nil, f.err
		}
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	ev := f.events[0]
	f.events = f.events[1:]
	offset := kafka.Offset(len(f.committed))
	return &ev, &kafka.Message{TopicPartition: kafka.TopicPartition{Offset: offset}}, nil
}

func (f *fakeEvents) Commit(msg *kafka.Message) error {
	f.committed = append(f.committed, int64(msg.TopicPartition.Offset))
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func TestEventsCommand_PrintsAndCommits(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeEvents{events: []models.PipelineEvent{
		{Type: models.EventSearchStored, QueryKey: "buds", ItemCount: 50, OccurredAt: at},
		{Type: models.EventAnalysisStored, QueryKey: "buds", ItemCount: 50, OccurredAt: at},
		{Type: models.EventSearchStored, QueryKey: "watch", ItemCount: 10, OccurredAt: at},
	}}
	var out bytes.Buffer
	cmd := &EventsCommand{Max: 2, globals: &GlobalFlags{}, out: &out}

	require.NoError(t, cmd.run(context.Background(), src))
	assert.Equal(t, []int64{0, 1}, src.committed)
	assert.Contains(t, out.String(), `search.stored`)
	assert.Contains(t, out.String(), `analysis.stored`)
	assert.NotContains(t, out.String(), `"watch"`)
}

func TestEventsCommand_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &EventsCommand{globals: &GlobalFlags{}, out: &bytes.Buffer{}}
	assert.NoError(t, cmd.run(ctx, &fakeEvents{}))
}

func TestEventsCommand_ReturnsReadError(t *testing.T) {
	cmd := &EventsCommand{globals: &GlobalFlags{}, out: &bytes.Buffer{}}
	err := cmd.run(context.Background(), &fakeEvents{err: errors.New("brokers down")})
	assert.EqualError(t, err, "brokers down")
}

func TestSearchCommand_KeepsQueryKeyAsTyped(t *testing.T) {
	p := &fakePipeline{items: sampleItems()}
	var out bytes.Buffer
	cmd := &SearchCommand{globals: &GlobalFlags{}, pipeline: p, out: &out}

	require.NoError(t, cmd.Execute([]string{" WidgetX "}))
	assert.Equal(t, " WidgetX ", p.lastSearch.Query)

	analyze := &AnalyzeCommand{globals: &GlobalFlags{}, pipeline: p, out: &out}
	require.NoError(t, analyze.Execute([]string{"Galaxy", " Buds"}))
	assert.Equal(t, "Galaxy  Buds", p.lastAnalyze.Query)
}

func TestShowCommand_BlankQueryRejected(t *testing.T) {
	cmd := &ShowCommand{globals: &GlobalFlags{}, pipeline: &fakePipeline{}, out: &bytes.Buffer{}}
	err := cmd.Execute([]string{"   "})
	assert.ErrorIs(t, err, processing.ErrEmptyQuery)
}
