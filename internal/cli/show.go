package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/web"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	return c.globals.withPipeline(c.pipeline, func(ctx context.Context, p web.Pipeline) error {
		return c.run(ctx, p, queryFrom(args))
	})
}

func (c *ShowCommand) run(ctx context.Context, p web.Pipeline, query string) error {
	if strings.TrimSpace(query) == "" {
		return userError{processing.ErrEmptyQuery}
	}
	snap, err := p.Snapshot(ctx, query, c.Limit)
	if err != nil {
		return userError{err}
	}

	w := writerOr(c.out)
	if c.globals.JSON {
		return encodeJSON(w, map[string]interface{}{
			"query":    snap.Query,
			"state":    snap.State.String(),
			"items":    snap.Items,
			"analysis": snap.Analysis,
		})
	}

	if snap.State == processing.NoData {
		fmt.Fprintf(w, "Nothing stored for %q. Run search first.\n", snap.Query)
		return nil
	}
	fmt.Fprintf(w, "%d stored posts for %q\n", len(snap.Items), snap.Query)
	printItems(w, snap.Items)
	if snap.Analysis != nil {
		fmt.Fprintln(w)
		printAnalysis(w, snap.Analysis)
	}
	return nil
}
