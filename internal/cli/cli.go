// Package cli implements the agentcases command line.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/internal/config"
	"github.com/smallnest/agentcases/internal/llm"
	"github.com/smallnest/agentcases/internal/render"
	"github.com/smallnest/agentcases/log"
	"github.com/smallnest/agentcases/store"
	"github.com/smallnest/agentcases/store/backend"
	"github.com/smallnest/agentcases/tool"
)

// ErrUsage marks errors caused by a wrong command line.
var ErrUsage = errors.New("usage error")

// Exit codes of Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Deps are the outside collaborators of the commands. Zero fields get
// production defaults.
type Deps struct {
	// LoadConfig defaults to config.Load.
	LoadConfig func(path string) (*config.Config, error)
	// Model defaults to an OpenAI-compatible model built from the config.
	Model func(cfg *config.Config) (llms.Model, error)
	// Searcher defaults to the configured web search backend.
	Searcher func(cfg *config.Config) (tool.Searcher, error)
	// Embed is the embedding function of docqa. Nil uses OpenAI embeddings
	// when an API key is configured and the offline hash embedder otherwise.
	Embed chromem.EmbeddingFunc
	// Clock is used by the time and date tools.
	Clock tool.Clock
	// Rand drives the mock weather and joke tools.
	Rand *tool.Rand
	// DataDir holds generated datasets, documents and charts. Defaults to ".".
	DataDir string
}

func (d Deps) withDefaults() Deps {
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	if d.Model == nil {
		d.Model = func(cfg *config.Config) (llms.Model, error) {
			if err := cfg.RequireLLM(); err != nil {
				return nil, err
			}
			return llm.New(cfg.LLM)
		}
	}
	if d.Searcher == nil {
		d.Searcher = func(cfg *config.Config) (tool.Searcher, error) {
			return tool.NewSearcher(cfg.Search.Provider, cfg.Search.BraveAPIKey, cfg.Search.BaseURL, cfg.Search.MaxResults)
		}
	}
	if d.DataDir == "" {
		d.DataDir = "."
	}
	return d
}

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `help:"Configuration file (TOML or YAML)." type:"path"`
	LogLevel string `name:"log-level" help:"Log level: debug, info, warn, error or none."`
	Store    string `help:"Checkpoint store: memory, file, sqlite, redis or postgres."`
	HTML     string `name:"html" help:"Also write the report as HTML to this file, where supported." type:"path"`
}

// CLI is the kong grammar of agentcases.
type CLI struct {
	Globals

	Ask        AskCmd        `cmd:"" help:"Send a prompt to the model."`
	React      ReactCmd      `cmd:"" help:"ReAct agent with calculator, clock and web search."`
	Calculator CalculatorCmd `cmd:"" help:"Calculator agent on fixed queries."`
	Weather    WeatherCmd    `cmd:"" help:"Weather agent with mock current conditions and forecasts."`
	Search     SearchCmd     `cmd:"" help:"Web search agent."`
	Multitool  MultitoolCmd  `cmd:"" help:"Agent with calculator, clock, weather, search and data analysis tools."`
	Chat       ChatCmd       `cmd:"" help:"Conversational agent with memory."`
	Docqa      DocQACmd      `cmd:"" name:"docqa" help:"Answer questions about a document."`
	Sales      SalesCmd      `cmd:"" help:"Data analysis agent over a sales dataset."`
	Translate  TranslateCmd  `cmd:"" help:"Translate text with cultural context and alternatives."`
	Shop       ShopCmd       `cmd:"" help:"Product recommendation agent over a mock catalog."`
	Code       CodeCmd       `cmd:"" help:"Generate, explain, improve, translate or debug code."`

	Breakdown    BreakdownCmd    `cmd:"" help:"Break a problem into steps and solve it."`
	Solve        SolveCmd        `cmd:"" help:"Route a problem by complexity and solve it."`
	Refine       RefineCmd       `cmd:"" help:"Refine a solution until it scores well."`
	ResearchTeam ResearchTeamCmd `cmd:"" name:"research-team" help:"Researcher, analyst, critic and synthesizer roles."`
	Tooluse      ToolUseCmd      `cmd:"" name:"tooluse" help:"Plan tool calls, run them and answer."`
	Validate     ValidateCmd     `cmd:"" help:"Summarize text with input validation."`
	Review       ReviewCmd       `cmd:"" help:"Write content with human review."`
	Parallel     ParallelCmd     `cmd:"" help:"Research sub-questions in parallel."`
	Edit         EditCmd         `cmd:"" help:"Create a versioned document."`
	Graph        GraphCmd        `cmd:"" help:"Draw a workflow graph."`
}

// App is what commands run against.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	deps    Deps
	globals Globals
	in      *bufio.Reader
	out     *render.Printer

	model      llms.Model
	store      store.CheckpointStore
	closeStore func() error
}

// Context is canceled on interrupt.
func (a *App) Context() context.Context { return a.ctx }

// Model builds the model on first use.
func (a *App) Model() (llms.Model, error) {
	if a.model != nil {
		return a.model, nil
	}
	m, err := a.deps.Model(a.cfg)
	if err != nil {
		return nil, err
	}
	a.model = m
	return m, nil
}

// defaultStorePaths are used when --store names a local store without a path.
var defaultStorePaths = map[string]string{
	"file":   "checkpoints",
	"sqlite": "checkpoints.db",
}

// Store opens the checkpoint store on first use.
func (a *App) Store() (store.CheckpointStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	opts := a.cfg.Backend()
	if name, ok := defaultStorePaths[opts.Kind]; ok && opts.Path == "" {
		opts.Path = filepath.Join(a.deps.DataDir, name)
	}
	st, closeFn, err := backend.Open(a.ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store.Kind, err)
	}
	a.store, a.closeStore = st, closeFn
	return st, nil
}

func (a *App) close() {
	if a.closeStore == nil {
		return
	}
	if err := a.closeStore(); err != nil {
		log.Warn("closing store: %v", err)
	}
}

// each runs fn for every query and prints the answer or the error, then
// goes on with the next query.
func (a *App) each(title string, queries []string, fn func(ctx context.Context, q string) (string, error)) {
	a.out.Header(title)
	a.out.Rule()
	for _, q := range queries {
		answer, err := fn(a.ctx, q)
		if err != nil {
			log.Error("query %q failed: %v", q, err)
			a.out.Println("Query: " + q)
			a.out.Error(err)
		} else {
			a.out.QA(q, answer)
		}
		a.out.Rule()
	}
}

// report writes md as HTML when --html is set.
func (a *App) report(title, md string) error {
	if a.globals.HTML == "" {
		return nil
	}
	if err := render.WriteHTMLFile(a.globals.HTML, title, md); err != nil {
		return err
	}
	a.out.Field("Report", a.globals.HTML)
	return nil
}

// queries returns the argument as the only query, or the fixed ones.
func queries(arg string, fixed []string) []string {
	if strings.TrimSpace(arg) != "" {
		return []string{arg}
	}
	return fixed
}

type exitPanic int

// Run parses args, runs the selected command and returns the exit status.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer, deps Deps) (code int) {
	deps = deps.withDefaults()

	var cli CLI
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitPanic)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	parser, err := kong.New(&cli,
		kong.Name("agentcases"),
		kong.Description("Agent and workflow demonstrations on a small state-graph runtime."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitPanic(c)) }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "agentcases: %v\n", err)
		return ExitFailure
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "agentcases: error: %v\n", err)
		var node *kong.Node
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			node = perr.Context.Selected()
		}
		fmt.Fprintln(stderr, usageLine(node))
		return ExitUsage
	}

	cfg, err := deps.LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "agentcases: %v\n", err)
		return ExitFailure
	}
	if cli.Store != "" {
		cfg.Store.Kind = cli.Store
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "agentcases: %v\n", err)
		return ExitUsage
	}
	log.SetDefaultLogger(log.NewWriterLogger(stderr, level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &App{
		ctx:     ctx,
		cfg:     cfg,
		deps:    deps,
		globals: cli.Globals,
		in:      bufio.NewReader(stdin),
		out:     render.NewPrinter(stdout),
	}
	defer app.close()

	if err := kctx.Run(app); err != nil {
		log.Error("%s: %v", kctx.Command(), err)
		app.out.Error(err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(stderr, usageLine(kctx.Selected()))
			return ExitUsage
		}
		return ExitFailure
	}
	return ExitOK
}

// usageLine shows the invocation syntax of the command kong selected.
func usageLine(node *kong.Node) string {
	for node != nil && node.Type != kong.CommandNode {
		node = node.Parent
	}
	if node == nil {
		return "Usage: agentcases <command> [<args> ...]"
	}
	return "Usage: agentcases " + node.Summary()
}
