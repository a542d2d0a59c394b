package cli

import (
	"context"
	"fmt"

	"github.com/spacesedan/reviewflow/internal/web"
)

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(_ []string) error {
	if !c.Yes {
		return fmt.Errorf("--yes is required to delete every stored post and analysis")
	}
	return c.globals.withPipeline(c.pipeline, c.run)
}

func (c *ResetCommand) run(ctx context.Context, p web.Pipeline) error {
	if err := p.Reset(ctx); err != nil {
		return userError{err}
	}

	w := writerOr(c.out)
	if c.globals.JSON {
		return encodeJSON(w, map[string]interface{}{"reset": true})
	}
	fmt.Fprintln(w, "All stored posts and analyses deleted.")
	return nil
}
