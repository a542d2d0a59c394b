package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/sentiment"
	"github.com/spacesedan/reviewflow/internal/web"
)

// userError prints the stage-aware message while keeping the cause
// reachable through errors.Is.
type userError struct {
	err error
}

func (e userError) Error() string { return processing.UserMessage(e.err) }
func (e userError) Unwrap() error { return e.err }

// withPipeline runs fn against injected, or against a pipeline over the
// configured store when injected is nil. The context is cancelled on
// SIGINT/SIGTERM.
func (g *GlobalFlags) withPipeline(injected web.Pipeline, fn func(ctx context.Context, p web.Pipeline) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if injected != nil {
		return fn(ctx, injected)
	}

	app, err := OpenApp(ctx, &g.Config)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer app.Close()

	return fn(ctx, app.Pipeline)
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// queryFrom joins the positional args into the query key exactly as typed.
func queryFrom(args []string) string {
	return strings.Join(args, " ")
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printItems(w io.Writer, items []models.SearchResultItem) {
	scores, tally := sentiment.ScoreItems(items)
	for i, item := range items {
		fmt.Fprintf(w, "%3d. %s\n", i+1, item.Title)
		fmt.Fprintf(w, "     %s | %s | %s (%.2f)\n", item.BloggerName, item.PostDate, scores[i].Label, scores[i].Compound)
		fmt.Fprintf(w, "     %s\n", item.Link)
	}
	fmt.Fprintf(w, "Lexical sentiment: %d positive, %d neutral, %d negative (mean %.2f)\n",
		tally.Positive, tally.Neutral, tally.Negative, tally.Mean)
}

func printAnalysis(w io.Writer, result *models.AnalysisResult) {
	fmt.Fprintf(w, "Analyzed %d posts at %s\n", result.AnalyzedCount, result.AnalyzedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "\nPositive:\n%s\n", result.Positive)
	fmt.Fprintf(w, "\nNegative:\n%s\n", result.Negative)
	fmt.Fprintf(w, "\nSummary:\n%s\n", result.Summary)
}
