package workflow

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/structured"
)

const (
	// QualityThreshold is the score at which refinement stops.
	QualityThreshold = 8.0
	// MaxRefinements caps the number of assessments.
	MaxRefinements = 3
)

// Assessment is the model's review of a solution.
type Assessment struct {
	Score       *float64   `json:"score"`
	Assessment  string     `json:"assessment"`
	Suggestions stringList `json:"suggestions"`
}

// RefinementState is the state of the Refinement pipeline.
type RefinementState struct {
	Problem           string   `json:"problem"`
	CurrentSolution   string   `json:"current_solution"`
	QualityAssessment string   `json:"quality_assessment"`
	QualityScore      float64  `json:"quality_score"`
	Suggestions       []string `json:"improvement_suggestions"`
	Iteration         int      `json:"iteration_count"`
	FinalSolution     string   `json:"final_solution"`
}

// Refinement drafts a solution and improves it until the model rates it at
// least QualityThreshold or MaxRefinements assessments have run.
type Refinement struct {
	model llms.Model
	opts  options
}

func NewRefinement(model llms.Model, opts ...Option) *Refinement {
	return &Refinement{model: model, opts: newOptions(opts)}
}

// Graph returns initial_solution -> assess -> (refine -> assess | finalize).
func (r *Refinement) Graph() *graph.StateGraph[RefinementState] {
	g := graph.NewStateGraph[RefinementState]()
	g.AddNode("initial_solution", "Draft a first solution", r.initial)
	g.AddNode("assess", "Score the solution and suggest improvements", r.assess)
	g.AddNode("refine", "Apply the suggestions", r.refine)
	g.AddNode("finalize", "Polish the final solution", r.finalize)

	g.AddEdge("initial_solution", "assess")
	g.AddConditionalEdge("assess", func(_ context.Context, s RefinementState) string {
		if s.QualityScore >= QualityThreshold || s.Iteration >= MaxRefinements {
			return "finalize"
		}
		return "refine"
	}, "refine", "finalize")
	g.AddEdge("refine", "assess")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("initial_solution")
	return g
}

func (r *Refinement) Run(ctx context.Context, problem string) (RefinementState, error) {
	return invoke(ctx, r.Graph(), r.opts, RefinementState{Problem: problem})
}

func (r *Refinement) initial(ctx context.Context, s RefinementState) (RefinementState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf(
		"Create an initial solution to this problem: '%s'. Focus on correctness first, optimization second.", s.Problem))
	if err != nil {
		return s, err
	}
	s.CurrentSolution = out
	return s, nil
}

func defaultAssessment() Assessment {
	score := 5.0
	return Assessment{
		Score:       &score,
		Assessment:  "Unable to parse assessment",
		Suggestions: stringList{"Improve overall solution"},
	}
}

// ParseAssessment decodes a JSON assessment, falling back to a neutral score
// of 5 when the text is not JSON.
func ParseAssessment(text string) Assessment {
	a, ok := structured.ParseJSON(text, defaultAssessment())
	if !ok {
		return a
	}
	if a.Score == nil {
		score := 5.0
		a.Score = &score
	}
	if a.Assessment == "" {
		a.Assessment = "No assessment provided"
	}
	if len(a.Suggestions) == 0 {
		a.Suggestions = stringList{"No suggestions provided"}
	}
	return a
}

func (r *Refinement) assess(ctx context.Context, s RefinementState) (RefinementState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf("Assess this solution to the problem: '%s'\n\n"+
		"SOLUTION:\n%s\n\n"+
		"Provide: \n"+
		"1. A quality score from 0-10 (where 10 is perfect)\n"+
		"2. An assessment of its strengths and weaknesses\n"+
		"3. A list of specific suggestions for improvement\n\n"+
		"Format your response as a JSON object with keys: 'score', 'assessment', 'suggestions'",
		s.Problem, s.CurrentSolution))
	if err != nil {
		return s, err
	}
	a := ParseAssessment(out)
	s.QualityScore = *a.Score
	s.QualityAssessment = a.Assessment
	s.Suggestions = []string(a.Suggestions)
	s.Iteration++
	return s, nil
}

func (r *Refinement) refine(ctx context.Context, s RefinementState) (RefinementState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf("Refine this solution for iteration %d:\n\n"+
		"PROBLEM: %s\n\n"+
		"CURRENT SOLUTION:\n%s\n\n"+
		"ASSESSMENT: %s\n\n"+
		"IMPROVEMENT SUGGESTIONS:\n%s\n\n"+
		"Please provide an improved version that addresses these suggestions.",
		s.Iteration, s.Problem, s.CurrentSolution, s.QualityAssessment, bullets(s.Suggestions)))
	if err != nil {
		return s, err
	}
	s.CurrentSolution = out
	return s, nil
}

func (r *Refinement) finalize(ctx context.Context, s RefinementState) (RefinementState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf("Create a final, polished solution to this problem: '%s'\n\n"+
		"Based on the current solution:\n%s\n\n"+
		"Make sure it's well-formatted, optimized, and includes any necessary explanations.",
		s.Problem, s.CurrentSolution))
	if err != nil {
		return s, err
	}
	s.FinalSolution = out
	return s, nil
}
