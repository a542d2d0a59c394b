package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
)

const (
	DEFAULT_MODEL     = openai.GPT3Dot5Turbo
	DEFAULT_MAX_CHARS = 8000
	TEMPERATURE       = 0.5
	MAX_TOKENS        = 800
)

type Options struct {
	Model    string
	MaxChars int
}

// Analyzer turns stored posts into positive/negative/summary text with one
// chat completion call. It never retries.
type Analyzer struct {
	client   *clients.OpenAIClient
	model    string
	maxChars int
}

func NewAnalyzer(client *clients.OpenAIClient, opts Options) *Analyzer {
	if opts.Model == "" {
		opts.Model = DEFAULT_MODEL
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DEFAULT_MAX_CHARS
	}
	return &Analyzer{client: client, model: opts.Model, maxChars: opts.MaxChars}
}

func (a *Analyzer) HasCredentials() bool {
	return a.client.HasCredentials()
}

// Analyze sends items for key to the model. AnalyzedCount on the result is
// len(items) even when the corpus had to be truncated.
func (a *Analyzer) Analyze(ctx context.Context, key string, items []models.SearchResultItem) (*models.AnalysisResult, error) {
	if !a.client.HasCredentials() {
		return nil, fmt.Errorf("[Analyzer] OpenAI API key: %w", clients.ErrMissingCredential)
	}
	if len(items) == 0 {
		return nil, errors.New("[Analyzer] no posts to analyze")
	}

	corpus, truncated := TruncateCorpus(BuildCorpus(items), a.maxChars)
	if truncated {
		slog.Warn("[Analyzer] Corpus too long, analyzing the leading part only",
			slog.String("query_key", key),
			slog.Int("max_chars", a.maxChars))
	}

	start := time.Now()
	resp, err := a.client.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    BuildMessages(key, len(items), corpus),
		Temperature: TEMPERATURE,
		MaxTokens:   MAX_TOKENS,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		slog.Error("[Analyzer] Failed to get a response from OpenAI",
			slog.String("query_key", key),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("[Analyzer] chat completion: %w: %v", clients.ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("[Analyzer] %w: reply has no choices", clients.ErrDecode)
	}

	slog.Info("[Analyzer] OpenAI Response Finish Reason",
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
		slog.Duration("elapsed", time.Since(start)))

	result, err := ParseReply(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Error("[Analyzer] Failed to decode analysis",
			slog.String("query_key", key),
			slog.String("raw_openai_response", resp.Choices[0].Message.Content),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("[Analyzer] %w", err)
	}

	result.AnalyzedCount = len(items)
	result.AnalyzedAt = time.Now().UTC()
	return &result, nil
}
