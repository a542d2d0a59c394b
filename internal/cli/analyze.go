package cli

import (
	"context"
	"fmt"

	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/web"
)

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	return c.globals.withPipeline(c.pipeline, func(ctx context.Context, p web.Pipeline) error {
		return c.run(ctx, p, queryFrom(args))
	})
}

func (c *AnalyzeCommand) run(ctx context.Context, p web.Pipeline, query string) error {
	out, err := p.Analyze(ctx, processing.AnalyzeRequest{
		Query:        query,
		Limit:        c.Limit,
		ForceRefresh: c.Force,
	})
	if err != nil {
		return userError{err}
	}

	w := writerOr(c.out)
	if c.globals.JSON {
		return encodeJSON(w, map[string]interface{}{
			"query":    out.Query,
			"cached":   out.Cached,
			"analysis": out.Result,
		})
	}

	if out.Cached {
		fmt.Fprintf(w, "Stored analysis for %q (use --force to re-analyze)\n", out.Query)
	} else {
		fmt.Fprintf(w, "New analysis for %q\n", out.Query)
	}
	printAnalysis(w, out.Result)
	return nil
}
