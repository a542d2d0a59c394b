package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
	"github.com/spacesedan/reviewflow/internal/logging"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve   *ServeCommand
	Search  *SearchCommand
	Analyze *AnalyzeCommand
	Show    *ShowCommand
	Reset   *ResetCommand
	Events  *EventsCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "reviewflow"
	parser.LongDescription = "Search Naver blogs for a product, store the posts and summarize them with OpenAI."

	cmds := &commands{
		Serve:   &ServeCommand{globals: &globals, version: version},
		Search:  &SearchCommand{globals: &globals, version: version},
		Analyze: &AnalyzeCommand{globals: &globals, version: version},
		Show:    &ShowCommand{globals: &globals, version: version},
		Reset:   &ResetCommand{globals: &globals, version: version},
		Events:  &EventsCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the web UI", "Serve the search and analysis web UI and its JSON API.", cmds.Serve)
	parser.AddCommand("search", "Search blog posts for a product", "Fetch blog posts for a product from Naver and replace what is stored for it.", cmds.Search)
	parser.AddCommand("analyze", "Analyze stored posts", "Send stored posts to OpenAI, or print the stored analysis unless --force is given.", cmds.Analyze)
	parser.AddCommand("show", "Print stored posts and analysis", "Print what is stored for a product without calling any API.", cmds.Show)
	parser.AddCommand("reset", "Delete ALL stored data", "Delete every stored post and analysis. Requires --yes.", cmds.Reset)
	parser.AddCommand("events", "Tail pipeline events", "Print search.stored and analysis.stored events from Kafka.", cmds.Events)

	// Config is validated and logging set up once flags and env are parsed,
	// before any command runs.
	parser.CommandHandler = func(cmd goflags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		logging.InitLogger(globals.LogLevel)
		if err := globals.Validate(); err != nil {
			return err
		}
		return cmd.Execute(args)
	}

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("reviewflow %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
