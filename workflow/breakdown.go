package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/structured"
)

var (
	// DefaultSteps replaces a breakdown the model did not return as a JSON list.
	DefaultSteps = []string{"Understand the problem", "Solve systematically", "Verify answer"}

	// DefaultComplexSteps replaces the breakdown of a complex problem.
	DefaultComplexSteps = []string{"Understand the problem", "Identify key components", "Develop solution strategy", "Verify the solution"}
)

// Complexity values of a ProblemState.
const (
	Simple  = "simple"
	Complex = "complex"
)

// ProblemState is the state of the Breakdown and Complexity pipelines.
type ProblemState struct {
	Problem     string   `json:"problem"`
	Complexity  string   `json:"complexity,omitempty"`
	Steps       []string `json:"steps"`
	Solution    string   `json:"solution"`
	FinalAnswer string   `json:"final_answer"`
}

// Breakdown splits a problem into steps, solves it step by step and
// condenses the solution into a final answer.
type Breakdown struct {
	model llms.Model
	opts  options
}

func NewBreakdown(model llms.Model, opts ...Option) *Breakdown {
	return &Breakdown{model: model, opts: newOptions(opts)}
}

// Graph returns breakdown -> solve -> finalize.
func (b *Breakdown) Graph() *graph.StateGraph[ProblemState] {
	g := graph.NewStateGraph[ProblemState]()
	g.AddNode("breakdown", "Break the problem into steps", b.breakdown)
	g.AddNode("solve", "Solve the problem following the steps", solveWith(b.model,
		"Solve this problem: '%s' by following these steps: %s. Show your work clearly, explaining each step."))
	g.AddNode("finalize", "Write a concise final answer", finalizeWith(b.model))
	g.AddEdge("breakdown", "solve")
	g.AddEdge("solve", "finalize")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("breakdown")
	return g
}

func (b *Breakdown) Run(ctx context.Context, problem string) (ProblemState, error) {
	return invoke(ctx, b.Graph(), b.opts, ProblemState{Problem: problem})
}

func (b *Breakdown) breakdown(ctx context.Context, s ProblemState) (ProblemState, error) {
	out, err := ask(ctx, b.model, fmt.Sprintf(
		"Break down this problem into clear steps: '%s'. Format your response as a JSON list of steps.", s.Problem))
	if err != nil {
		return s, err
	}
	s.Steps = parseSteps(out, DefaultSteps)
	return s, nil
}

func parseSteps(text string, fallback []string) []string {
	steps, ok := structured.ParseJSON[[]string](text, fallback)
	if !ok || len(steps) == 0 {
		return append([]string(nil), fallback...)
	}
	return steps
}

func solveWith(model llms.Model, format string) func(context.Context, ProblemState) (ProblemState, error) {
	return func(ctx context.Context, s ProblemState) (ProblemState, error) {
		out, err := ask(ctx, model, fmt.Sprintf(format, s.Problem, quoteList(s.Steps)))
		if err != nil {
			return s, err
		}
		s.Solution = out
		return s, nil
	}
}

func finalizeWith(model llms.Model) func(context.Context, ProblemState) (ProblemState, error) {
	return func(ctx context.Context, s ProblemState) (ProblemState, error) {
		out, err := ask(ctx, model, fmt.Sprintf(
			"Based on this solution: '%s', provide a concise final answer to the original problem.", s.Solution))
		if err != nil {
			return s, err
		}
		s.FinalAnswer = out
		return s, nil
	}
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Complexity routes simple problems to a direct answer and complex ones
// through a breakdown first.
type Complexity struct {
	model llms.Model
	opts  options
}

func NewComplexity(model llms.Model, opts ...Option) *Complexity {
	return &Complexity{model: model, opts: newOptions(opts)}
}

// Graph returns analyze -> (solve_simple | break_down_complex -> solve_complex) -> finalize.
func (c *Complexity) Graph() *graph.StateGraph[ProblemState] {
	g := graph.NewStateGraph[ProblemState]()
	g.AddNode("analyze", "Classify the problem as simple or complex", c.analyze)
	g.AddNode("solve_simple", "Solve a simple problem directly", c.solveSimple)
	g.AddNode("break_down_complex", "Break a complex problem into steps", c.breakDown)
	g.AddNode("solve_complex", "Solve a complex problem step by step", solveWith(c.model,
		"Solve this complex problem: '%s' by following these steps: %s. "+
			"Show your work clearly for each step, explaining your reasoning process."))
	g.AddNode("finalize", "Write a concise final answer", finalizeWith(c.model))

	g.AddConditionalEdge("analyze", func(_ context.Context, s ProblemState) string {
		if s.Complexity == Simple {
			return "solve_simple"
		}
		return "break_down_complex"
	}, "solve_simple", "break_down_complex")
	g.AddEdge("solve_simple", "finalize")
	g.AddEdge("break_down_complex", "solve_complex")
	g.AddEdge("solve_complex", "finalize")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("analyze")
	return g
}

func (c *Complexity) Run(ctx context.Context, problem string) (ProblemState, error) {
	return invoke(ctx, c.Graph(), c.opts, ProblemState{Problem: problem})
}

func (c *Complexity) analyze(ctx context.Context, s ProblemState) (ProblemState, error) {
	out, err := ask(ctx, c.model, fmt.Sprintf(
		"Analyze this problem and determine if it's 'simple' or 'complex': '%s'. "+
			"Consider a problem simple if it can be solved in one or two straightforward steps. "+
			"Consider it complex if it requires multiple steps or advanced reasoning. "+
			"Return only the word 'simple' or 'complex'.", s.Problem))
	if err != nil {
		return s, err
	}
	s.Complexity = Complex
	if strings.Contains(strings.ToLower(out), Simple) {
		s.Complexity = Simple
	}
	return s, nil
}

func (c *Complexity) solveSimple(ctx context.Context, s ProblemState) (ProblemState, error) {
	out, err := ask(ctx, c.model, fmt.Sprintf(
		"Solve this simple problem directly: '%s'. Provide a straightforward calculation or reasoning.", s.Problem))
	if err != nil {
		return s, err
	}
	s.Steps = []string{"Direct calculation"}
	s.Solution = out
	return s, nil
}

func (c *Complexity) breakDown(ctx context.Context, s ProblemState) (ProblemState, error) {
	out, err := ask(ctx, c.model, fmt.Sprintf(
		"Break down this complex problem into clear steps: '%s'. Format your response as a JSON list of steps.", s.Problem))
	if err != nil {
		return s, err
	}
	s.Steps = parseSteps(out, DefaultComplexSteps)
	return s, nil
}
