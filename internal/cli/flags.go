package cli

import (
	"io"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/web"
)

// GlobalFlags holds flags available to all subcommands. Every config value
// is also a global flag.
type GlobalFlags struct {
	config.Config

	JSON    bool `long:"json" description:"Output in JSON format"`
	Version bool `long:"version" description:"Show version and exit"`
}

// ServeCommand runs the web UI.
type ServeCommand struct {
	globals *GlobalFlags
	version string
}

// SearchCommand fetches posts for a product and replaces what is stored.
// Count and sort come from the global --count and --sort flags.
type SearchCommand struct {
	Start int `long:"start" description:"Position of the first result (1-1000)" default:"1"`

	globals  *GlobalFlags
	version  string
	pipeline web.Pipeline // injectable for testing; nil means open the configured store
	out      io.Writer
}

// AnalyzeCommand analyzes stored posts, or prints the stored analysis.
type AnalyzeCommand struct {
	Force bool `long:"force" description:"Re-run the analysis even if one is stored"`
	Limit int  `long:"limit" description:"Maximum stored posts sent to the model" default:"50"`

	globals  *GlobalFlags
	version  string
	pipeline web.Pipeline
	out      io.Writer
}

// ShowCommand prints stored posts and analysis without calling any API.
type ShowCommand struct {
	Limit int `long:"limit" description:"Maximum posts to print" default:"100"`

	globals  *GlobalFlags
	version  string
	pipeline web.Pipeline
	out      io.Writer
}

// ResetCommand deletes every stored post and analysis.
type ResetCommand struct {
	Yes bool `long:"yes" description:"Required flag to confirm the reset"`

	globals  *GlobalFlags
	version  string
	pipeline web.Pipeline
	out      io.Writer
}

// EventsCommand tails pipeline events from Kafka.
type EventsCommand struct {
	FromBeginning bool `long:"from-beginning" description:"Start from the oldest retained event"`
	Max           int  `long:"max" description:"Stop after this many events; 0 runs until interrupted"`

	globals *GlobalFlags
	version string
	out     io.Writer
}
