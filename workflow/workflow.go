package workflow

import (
	"context"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/llm"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/log"
	"github.com/smallnest/agentcases/prebuilt"
	"github.com/smallnest/agentcases/store"
)

// Option configures a pipeline.
type Option func(*options)

type options struct {
	logger       log.Logger
	store        store.CheckpointStore
	maxRevisions int
	author       string
}

func newOptions(opts []Option) options {
	o := options{maxRevisions: DefaultMaxRevisions, author: DefaultAuthor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger logs node transitions to l instead of the default logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCheckpointStore saves the state of every step so that an interrupted
// review can be resumed later.
func WithCheckpointStore(st store.CheckpointStore) Option {
	return func(o *options) { o.store = st }
}

// WithMaxRevisions caps the revision rounds of a review; the draft is
// approved automatically once the cap is reached.
func WithMaxRevisions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRevisions = n
		}
	}
}

// WithAuthor sets the name of the user the document editor works as.
func WithAuthor(name string) Option {
	return func(o *options) {
		if name != "" {
			o.author = name
		}
	}
}

// compile builds an app that logs every node transition.
func compile[S any](g *graph.StateGraph[S], o options) (*graph.StateRunnable[S], error) {
	app, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return app.WithListeners(graph.LoggingListener[S]{Logger: o.logger}), nil
}

func invoke[S any](ctx context.Context, g *graph.StateGraph[S], o options, state S) (S, error) {
	app, err := compile(g, o)
	if err != nil {
		return state, err
	}
	return app.Invoke(ctx, state)
}

func ask(ctx context.Context, model llms.Model, prompt string) (string, error) {
	return llm.Complete(ctx, model, prompt)
}

func askAs(ctx context.Context, model llms.Model, system, prompt string) (string, error) {
	return llm.Chat(ctx, model, system, prompt)
}

// stringList decodes from a JSON array of strings or from a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := sonic.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := sonic.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// parseList reads a JSON array of strings, or else the bulleted and
// numbered lines of text. It returns fallback when neither yields an item.
func parseList(text string, fallback []string) []string {
	if items, ok := structured.ParseJSON[[]string](text, nil); ok && len(items) > 0 {
		return items
	}
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := rune(line[0])
		if first != '-' && first != '*' && !unicode.IsDigit(first) {
			continue
		}
		if item := strings.TrimSpace(strings.TrimLeft(line, "- *0123456789.)")); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return slices.Clone(fallback)
	}
	return items
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func bullets(items []string) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("- ")
		sb.WriteString(it)
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Diagram draws a pipeline graph.
type Diagram interface {
	DrawMermaid() string
	DrawDOT() string
}

func diagram[S any](g *graph.StateGraph[S]) Diagram {
	return graph.NewExporter(g)
}

// Registry maps pipeline names to functions drawing their graph.
var Registry = map[string]func(model llms.Model) Diagram{
	"breakdown":     func(m llms.Model) Diagram { return diagram(NewBreakdown(m).Graph()) },
	"solve":         func(m llms.Model) Diagram { return diagram(NewComplexity(m).Graph()) },
	"refine":        func(m llms.Model) Diagram { return diagram(NewRefinement(m).Graph()) },
	"research-team": func(m llms.Model) Diagram { return diagram(NewResearchTeam(m).Graph()) },
	"tooluse":       func(m llms.Model) Diagram { return diagram(NewToolUse(m).Graph()) },
	"validate":      func(m llms.Model) Diagram { return diagram(NewValidation(m).Graph()) },
	"review":        func(m llms.Model) Diagram { return diagram(NewReview(m).Graph()) },
	"parallel":      func(m llms.Model) Diagram { return diagram(NewParallelResearch(m).Graph()) },
	"research":      func(m llms.Model) Diagram { return diagram(NewParallelResearch(m).SubGraph()) },
	"edit":          func(m llms.Model) Diagram { return diagram(NewDocumentEditor(m).Graph()) },
	"react":         func(m llms.Model) Diagram { return diagram(prebuilt.NewReactGraph(m, nil)) },
}

// Names returns the registered pipeline names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(Registry))
}
