package workflow

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/memory"
)

// Finding is one researched topic.
type Finding struct {
	Topic     string     `json:"topic"`
	KeyPoints stringList `json:"key_points"`
	Relevance string     `json:"relevance"`
}

// Analysis is the analyst's reading of the findings.
type Analysis struct {
	MainInsights  stringList `json:"main_insights"`
	Patterns      stringList `json:"patterns"`
	Controversies stringList `json:"controversies"`
	KnowledgeGaps stringList `json:"knowledge_gaps"`
}

// Critique is the critic's evaluation of the research and analysis.
type Critique struct {
	Strengths              stringList `json:"strengths"`
	Weaknesses             stringList `json:"weaknesses"`
	PotentialBiases        stringList `json:"potential_biases"`
	ImprovementSuggestions stringList `json:"improvement_suggestions"`
}

// TeamState is the state of the ResearchTeam pipeline. Messages records
// what each role reported, with the role as the message role.
type TeamState struct {
	Query     string     `json:"query"`
	Findings  []Finding  `json:"research_findings"`
	Analysis  Analysis   `json:"analysis_results"`
	Critique  Critique   `json:"critique"`
	Synthesis string     `json:"final_synthesis"`
	Messages  memory.Log `json:"messages"`
}

var (
	fallbackFindings = []Finding{{
		Topic:     "General information",
		KeyPoints: stringList{"Unable to parse structured findings"},
		Relevance: "Directly related to query",
	}}
	fallbackAnalysis = Analysis{MainInsights: stringList{"Analysis could not be structured properly"}}
	fallbackCritique = Critique{
		Strengths:              stringList{"Some valuable information was gathered"},
		Weaknesses:             stringList{"Critique could not be structured properly"},
		ImprovementSuggestions: stringList{"Consider gathering more diverse perspectives"},
	}
)

const (
	researcherPrompt = "You are a meticulous researcher. Your job is to gather and organize information " +
		"relevant to the query. Focus on finding diverse perspectives, key facts, and " +
		"identifying important sub-topics. Format your findings as a JSON array of objects, " +
		"each with 'topic', 'key_points', and 'relevance' fields."
	analystPrompt = "You are an insightful analyst. Your job is to process research findings, " +
		"identify patterns, draw connections between topics, and extract meaningful insights. " +
		"Organize your analysis as a JSON object with keys for 'main_insights', 'patterns', " +
		"'controversies', and 'knowledge_gaps'."
	criticPrompt = "You are a constructive critic. Your job is to evaluate the research and analysis, " +
		"identify weaknesses, spot potential biases, and suggest improvements. Format your " +
		"critique as a JSON object with keys for 'strengths', 'weaknesses', 'potential_biases', " +
		"and 'improvement_suggestions'."
	synthesizerPrompt = "You are an expert synthesizer. Your job is to integrate research findings, analysis, " +
		"and critique into a comprehensive, balanced, and insightful response. Create a well-structured " +
		"answer that addresses the original query while acknowledging different perspectives and limitations."
)

// ResearchTeam passes a query through researcher, analyst, critic and
// synthesizer roles, each seeing the work of the previous ones.
type ResearchTeam struct {
	model llms.Model
	opts  options
}

func NewResearchTeam(model llms.Model, opts ...Option) *ResearchTeam {
	return &ResearchTeam{model: model, opts: newOptions(opts)}
}

// Graph returns researcher -> analyst -> critic -> synthesizer.
func (t *ResearchTeam) Graph() *graph.StateGraph[TeamState] {
	g := graph.NewStateGraph[TeamState]()
	g.AddNode("researcher", "Gather findings on the query", t.researcher)
	g.AddNode("analyst", "Extract insights from the findings", t.analyst)
	g.AddNode("critic", "Critique the research and analysis", t.critic)
	g.AddNode("synthesizer", "Write the final synthesis", t.synthesizer)
	g.AddEdge("researcher", "analyst")
	g.AddEdge("analyst", "critic")
	g.AddEdge("critic", "synthesizer")
	g.AddEdge("synthesizer", graph.END)
	g.SetEntryPoint("researcher")
	return g
}

func (t *ResearchTeam) Run(ctx context.Context, query string) (TeamState, error) {
	return invoke(ctx, t.Graph(), t.opts, TeamState{Query: query})
}

// parseFindings accepts an array of findings or a single finding object.
func parseFindings(text string) []Finding {
	if many, ok := structured.ParseJSON[[]Finding](text, nil); ok && len(many) > 0 {
		return many
	}
	if one, ok := structured.ParseJSON(text, Finding{}); ok {
		return []Finding{one}
	}
	return append([]Finding(nil), fallbackFindings...)
}

func (t *ResearchTeam) researcher(ctx context.Context, s TeamState) (TeamState, error) {
	out, err := askAs(ctx, t.model, researcherPrompt, "Research this topic thoroughly: "+s.Query)
	if err != nil {
		return s, err
	}
	s.Findings = parseFindings(out)
	s.Messages = s.Messages.Append("Researcher",
		fmt.Sprintf("I've gathered information on %d topics related to '%s'.", len(s.Findings), s.Query))
	return s, nil
}

func (t *ResearchTeam) analyst(ctx context.Context, s TeamState) (TeamState, error) {
	out, err := askAs(ctx, t.model, analystPrompt, fmt.Sprintf(
		"Analyze these research findings related to: %s\n\nFINDINGS: %s", s.Query, structured.Indent(s.Findings)))
	if err != nil {
		return s, err
	}
	s.Analysis, _ = structured.ParseJSON(out, fallbackAnalysis)
	s.Messages = s.Messages.Append("Analyst",
		fmt.Sprintf("I've analyzed the research and identified %d key insights.", len(s.Analysis.MainInsights)))
	return s, nil
}

func (t *ResearchTeam) critic(ctx context.Context, s TeamState) (TeamState, error) {
	out, err := askAs(ctx, t.model, criticPrompt, fmt.Sprintf(
		"Critically evaluate this research and analysis on: %s\n\nRESEARCH FINDINGS: %s\n\nANALYSIS: %s",
		s.Query, structured.Indent(s.Findings), structured.Indent(s.Analysis)))
	if err != nil {
		return s, err
	}
	s.Critique, _ = structured.ParseJSON(out, fallbackCritique)
	s.Messages = s.Messages.Append("Critic", fmt.Sprintf(
		"I've identified %d weaknesses and have %d suggestions for improvement.",
		len(s.Critique.Weaknesses), len(s.Critique.ImprovementSuggestions)))
	return s, nil
}

func (t *ResearchTeam) synthesizer(ctx context.Context, s TeamState) (TeamState, error) {
	out, err := askAs(ctx, t.model, synthesizerPrompt, fmt.Sprintf(
		"Synthesize a comprehensive answer to: %s\n\nRESEARCH FINDINGS: %s\n\nANALYSIS: %s\n\nCRITIQUE: %s\n\n"+
			"Create a well-structured, balanced response that incorporates all perspectives and acknowledges limitations.",
		s.Query, structured.Indent(s.Findings), structured.Indent(s.Analysis), structured.Indent(s.Critique)))
	if err != nil {
		return s, err
	}
	s.Synthesis = out
	s.Messages = s.Messages.Append("Synthesizer",
		"I've created a comprehensive synthesis incorporating all perspectives and addressing the critique.")
	return s, nil
}
