package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/log"
)

// MaxSubQuestions caps the breakdown of a research question.
const MaxSubQuestions = 5

var (
	fallbackKeyPoints = []string{"Unable to parse key points"}
	fallbackSources   = []string{"Journal of relevant research", "Government report"}
)

// ResearchResult is the outcome of researching one sub-question.
type ResearchResult struct {
	SubQuestion string        `json:"sub_question"`
	Findings    string        `json:"findings"`
	KeyPoints   []string      `json:"key_points"`
	Sources     []string      `json:"sources"`
	Duration    time.Duration `json:"execution_time"`
	Error       string        `json:"error,omitempty"`
}

// ParallelStats reports how long the research phase took.
type ParallelStats struct {
	// Total is the wall-clock time of the research phase.
	Total       time.Duration            `json:"total_time"`
	PerQuestion map[string]time.Duration `json:"sub_question_times"`
	Average     time.Duration            `json:"average_time"`
	// Speedup is the summed research time divided by Total.
	Speedup float64 `json:"speedup"`
}

// ParallelState is the state of the ParallelResearch pipeline.
type ParallelState struct {
	Query        string                    `json:"query"`
	SubQuestions []string                  `json:"sub_questions"`
	Results      map[string]ResearchResult `json:"research_results"`
	Synthesis    string                    `json:"synthesis"`
	Stats        ParallelStats             `json:"execution_stats"`
}

// ParallelResearch splits a question into sub-questions, researches them
// concurrently and synthesises the results.
type ParallelResearch struct {
	model llms.Model
	opts  options
}

func NewParallelResearch(model llms.Model, opts ...Option) *ParallelResearch {
	return &ParallelResearch{model: model, opts: newOptions(opts)}
}

// Graph returns breakdown -> research_parallel -> synthesize.
func (p *ParallelResearch) Graph() *graph.StateGraph[ParallelState] {
	g := graph.NewStateGraph[ParallelState]()
	g.AddNode("breakdown", "Split the question into sub-questions", p.breakdown)
	g.AddNode("research_parallel", "Research every sub-question concurrently", p.researchParallel)
	g.AddNode("synthesize", "Combine the research into one answer", p.synthesize)
	g.AddEdge("breakdown", "research_parallel")
	g.AddEdge("research_parallel", "synthesize")
	g.AddEdge("synthesize", graph.END)
	g.SetEntryPoint("breakdown")
	return g
}

// SubGraph returns the per sub-question graph research ->
// extract_key_points -> identify_sources.
func (p *ParallelResearch) SubGraph() *graph.StateGraph[ResearchResult] {
	g := graph.NewStateGraph[ResearchResult]()
	g.AddNode("research", "Research the sub-question", p.research)
	g.AddNode("extract_key_points", "Extract the key points of the findings", p.extractKeyPoints)
	g.AddNode("identify_sources", "Suggest sources for the findings", p.identifySources)
	g.AddEdge("research", "extract_key_points")
	g.AddEdge("extract_key_points", "identify_sources")
	g.AddEdge("identify_sources", graph.END)
	g.SetEntryPoint("research")
	return g
}

func (p *ParallelResearch) Run(ctx context.Context, query string) (ParallelState, error) {
	return invoke(ctx, p.Graph(), p.opts, ParallelState{Query: query})
}

// SubQuestions parses a breakdown answer: a JSON array, else bulleted or
// numbered lines. Duplicates are dropped and at most MaxSubQuestions kept.
func SubQuestions(text, query string) []string {
	fallback := []string{
		fmt.Sprintf("What are the key aspects of %s?", query),
		fmt.Sprintf("What challenges exist regarding %s?", query),
		fmt.Sprintf("What are current solutions related to %s?", query),
	}
	var out []string
	for _, q := range parseList(text, fallback) {
		q = strings.TrimSpace(q)
		if q == "" || slices.Contains(out, q) {
			continue
		}
		out = append(out, q)
		if len(out) == MaxSubQuestions {
			break
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (p *ParallelResearch) breakdown(ctx context.Context, s ParallelState) (ParallelState, error) {
	out, err := ask(ctx, p.model, fmt.Sprintf(
		"Break down this research question into 3-5 focused sub-questions that can be researched independently: '%s'. "+
			"Return the sub-questions as a JSON array of strings. "+
			"Each sub-question should be specific, focused, and contribute to answering the main question.", s.Query))
	if err != nil {
		return s, err
	}
	s.SubQuestions = SubQuestions(out, s.Query)
	s.Results = nil
	return s, nil
}

func (p *ParallelResearch) researchParallel(ctx context.Context, s ParallelState) (ParallelState, error) {
	app, err := compile(p.SubGraph(), p.opts)
	if err != nil {
		return s, err
	}

	results, stats, firstErr := graph.Scatter(ctx, s.SubQuestions,
		func(ctx context.Context, q string) (ResearchResult, error) {
			return app.Invoke(ctx, ResearchResult{SubQuestion: q})
		})

	byQuestion := make(map[string]ResearchResult, len(results))
	perQuestion := make(map[string]time.Duration, len(results))
	failed := 0
	for _, r := range results {
		res := r.Output
		res.SubQuestion = r.Input
		res.Duration = r.Duration
		if r.Err != nil {
			failed++
			res.Error = r.Err.Error()
			log.Warn("research of %q failed: %v", r.Input, r.Err)
		}
		byQuestion[r.Input] = res
		perQuestion[r.Input] = r.Duration
	}
	if len(results) > 0 && failed == len(results) {
		return s, fmt.Errorf("parallel research: %w", firstErr)
	}

	s.Results = byQuestion
	s.Stats = ParallelStats{
		Total:       stats.Total,
		PerQuestion: perQuestion,
		Average:     stats.Average(len(results)),
		Speedup:     stats.Speedup(),
	}
	return s, nil
}

func (p *ParallelResearch) research(ctx context.Context, r ResearchResult) (ResearchResult, error) {
	out, err := ask(ctx, p.model, fmt.Sprintf("Research this question thoroughly: '%s'. "+
		"Provide detailed findings with supporting evidence. "+
		"Include various perspectives and cite potential sources where applicable.", r.SubQuestion))
	if err != nil {
		return r, err
	}
	r.Findings = out
	return r, nil
}

func (p *ParallelResearch) extractKeyPoints(ctx context.Context, r ResearchResult) (ResearchResult, error) {
	out, err := ask(ctx, p.model, "Extract the 3-5 most important key points from these research findings. "+
		"Format your response as a JSON array of strings.\n\nFINDINGS:\n"+r.Findings)
	if err != nil {
		return r, err
	}
	r.KeyPoints = parseList(out, fallbackKeyPoints)
	return r, nil
}

func (p *ParallelResearch) identifySources(ctx context.Context, r ResearchResult) (ResearchResult, error) {
	out, err := ask(ctx, p.model, fmt.Sprintf(
		"Based on this research about '%s', suggest 3-5 credible sources that might "+
			"provide this information. These can be academic journals, organizations, government agencies, "+
			"or reputable publications. Format as a JSON array of strings.\n\n"+
			"FINDINGS SUMMARY:\n%s...", r.SubQuestion, truncate(r.Findings, 500)))
	if err != nil {
		return r, err
	}
	r.Sources = parseList(out, fallbackSources)
	return r, nil
}

func (p *ParallelResearch) synthesize(ctx context.Context, s ParallelState) (ParallelState, error) {
	var sections []string
	for _, q := range s.SubQuestions {
		res, ok := s.Results[q]
		if !ok {
			continue
		}
		findings := res.Findings
		if findings == "" {
			findings = "No findings available"
		}
		sections = append(sections, fmt.Sprintf("SUB-QUESTION: %s\nKEY POINTS: %s\nDETAILED FINDINGS: %s\n",
			q, jsonText(res.KeyPoints), findings))
	}

	out, err := ask(ctx, p.model, fmt.Sprintf(
		"Synthesize these research findings into a comprehensive answer to the original question: '%s'\n\n"+
			"RESEARCH FINDINGS:\n%s\n\n"+
			"Provide a well-structured, cohesive response that integrates all the research. "+
			"Include key insights from each sub-question and highlight any interconnections.",
		s.Query, strings.Join(sections, "\n\n")))
	if err != nil {
		return s, err
	}
	s.Synthesis = out
	return s, nil
}
