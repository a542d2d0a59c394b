package cli

import (
	"context"
	"fmt"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/web"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	return c.globals.withPipeline(c.pipeline, func(ctx context.Context, p web.Pipeline) error {
		return c.run(ctx, p, queryFrom(args))
	})
}

func (c *SearchCommand) run(ctx context.Context, p web.Pipeline, query string) error {
	out, err := p.Search(ctx, processing.SearchRequest{
		Query: query,
		Count: c.globals.DefaultCount,
		Start: c.Start,
		Sort:  models.SortMode(c.globals.DefaultSort),
	})
	if err != nil {
		return userError{err}
	}

	w := writerOr(c.out)
	if c.globals.JSON {
		return encodeJSON(w, map[string]interface{}{
			"query":              out.Query,
			"total":              out.Total,
			"stored":             out.Stored,
			"has_prior_analysis": out.HasPriorAnalysis,
			"items":              out.Items,
		})
	}

	fmt.Fprintf(w, "Stored %d of %d posts for %q\n", out.Stored, out.Total, out.Query)
	if out.HasPriorAnalysis {
		fmt.Fprintln(w, "An analysis from an earlier search is still stored; run analyze --force to refresh it.")
	}
	printItems(w, out.Items)
	return nil
}
