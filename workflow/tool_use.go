package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/tool"
)

// Tool result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolRequest is one tool call planned by the model. Args is whatever JSON
// the model produced: usually an object, sometimes a bare string.
type ToolRequest struct {
	Name   string `json:"name"`
	Args   any    `json:"args"`
	Reason string `json:"reason"`
}

// ToolResult is the outcome of a ToolRequest.
type ToolResult struct {
	Tool   string `json:"tool"`
	Args   any    `json:"args"`
	Status string `json:"status"`
	Result string `json:"result"`
}

// ToolPlan is the JSON the model answers the analysis prompt with.
type ToolPlan struct {
	Thoughts   stringList    `json:"thoughts"`
	ToolsToUse []ToolRequest `json:"tools_to_use"`
}

// ToolUseState is the state of the ToolUse pipeline.
type ToolUseState struct {
	Query       string        `json:"query"`
	Thoughts    []string      `json:"thoughts"`
	Requests    []ToolRequest `json:"tools_to_use"`
	Results     []ToolResult  `json:"tool_results"`
	FinalAnswer string        `json:"final_answer"`
}

// ResearchTools returns the weather, wiki, calculator and date tools offered
// to the ToolUse planner.
func ResearchTools() []tools.Tool {
	weather := tool.NewWeather()
	wiki := tool.Wiki{}
	calc := &tool.Calculator{AllowedChars: tool.BasicArithmetic}
	date := &tool.DateTool{}
	return []tools.Tool{
		tool.NewFunc("weather_tool", "Get weather information for a location. Args: location (required)", weather.Call),
		tool.NewFunc("wiki_tool", "Look up information on a topic. Args: topic (required)", wiki.Call),
		tool.NewFunc("calculator", "Perform mathematical calculations. Args: expression (required)", calc.Call),
		tool.NewFunc("date_tool", "Get date-related information. Args: query (required)", date.Call),
	}
}

// ToolUse lets the model plan a set of tool calls, runs them and answers
// from their results.
type ToolUse struct {
	model llms.Model
	tools []tools.Tool
	opts  options
}

// NewToolUse plans over ResearchTools.
func NewToolUse(model llms.Model, opts ...Option) *ToolUse {
	return NewToolUseWith(model, ResearchTools(), opts...)
}

// NewToolUseWith plans over ts.
func NewToolUseWith(model llms.Model, ts []tools.Tool, opts ...Option) *ToolUse {
	return &ToolUse{model: model, tools: ts, opts: newOptions(opts)}
}

// Graph returns analyze_query -> execute_tools -> analyze_results.
func (u *ToolUse) Graph() *graph.StateGraph[ToolUseState] {
	g := graph.NewStateGraph[ToolUseState]()
	g.AddNode("analyze_query", "Plan which tools to call", u.analyzeQuery)
	g.AddNode("execute_tools", "Run the planned tools", u.executeTools)
	g.AddNode("analyze_results", "Answer from the tool results", u.analyzeResults)
	g.AddEdge("analyze_query", "execute_tools")
	g.AddEdge("execute_tools", "analyze_results")
	g.AddEdge("analyze_results", graph.END)
	g.SetEntryPoint("analyze_query")
	return g
}

func (u *ToolUse) Run(ctx context.Context, query string) (ToolUseState, error) {
	return invoke(ctx, u.Graph(), u.opts, ToolUseState{Query: query})
}

func (u *ToolUse) analyzeQuery(ctx context.Context, s ToolUseState) (ToolUseState, error) {
	var descriptions []string
	for _, t := range u.tools {
		descriptions = append(descriptions, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}
	system := "You are a helpful research assistant with access to several tools. " +
		"Analyze the query and determine which tools would be helpful to answer it. " +
		"Respond with a JSON object that includes your thoughts and a list of tools to use.\n\n" +
		"Available tools:\n" + strings.Join(descriptions, "\n") + "\n\n" +
		"Your response should be formatted as JSON with these fields:\n" +
		"- thoughts: your reasoning about the query and what information is needed\n" +
		"- tools_to_use: a list of objects, each with 'name' (must match an available tool), " +
		"'args' (parameters to pass to the tool), and 'reason' (why this tool is needed)"

	out, err := askAs(ctx, u.model, system, "Analyze this query: "+s.Query)
	if err != nil {
		return s, err
	}
	plan, ok := structured.ParseJSON(out, ToolPlan{Thoughts: stringList{"Failed to parse structured analysis"}})
	if ok && len(plan.Thoughts) == 0 {
		plan.Thoughts = stringList{"No explicit thoughts provided"}
	}
	s.Thoughts = []string(plan.Thoughts)
	s.Requests = plan.ToolsToUse
	s.Results = nil
	return s, nil
}

// argInput flattens planned arguments into the single string a tool takes.
func argInput(args any) string {
	switch v := args.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"input", "location", "topic", "expression", "query"} {
			if arg, ok := v[key]; ok {
				return fmt.Sprint(arg)
			}
		}
		var parts []string
		for _, key := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, fmt.Sprint(v[key]))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprint(args)
}

func (u *ToolUse) executeTools(ctx context.Context, s ToolUseState) (ToolUseState, error) {
	byName := make(map[string]tools.Tool, len(u.tools))
	for _, t := range u.tools {
		byName[t.Name()] = t
	}

	results := make([]ToolResult, 0, len(s.Requests))
	for _, req := range s.Requests {
		res := ToolResult{Tool: req.Name, Args: req.Args, Status: StatusSuccess}
		t, ok := byName[req.Name]
		if !ok {
			res.Status = StatusError
			res.Result = fmt.Sprintf("Error: Tool '%s' not found", req.Name)
			results = append(results, res)
			continue
		}
		out, err := t.Call(ctx, argInput(req.Args))
		if err != nil {
			res.Status = StatusError
			res.Result = "Error: " + err.Error()
		} else {
			res.Result = out
		}
		results = append(results, res)
	}
	s.Results = results
	return s, nil
}

func jsonText(v any) string {
	out, err := sonic.MarshalString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return out
}

func (u *ToolUse) analyzeResults(ctx context.Context, s ToolUseState) (ToolUseState, error) {
	var info []string
	for i, res := range s.Results {
		reason := "No reason provided"
		if i < len(s.Requests) && s.Requests[i].Reason != "" {
			reason = s.Requests[i].Reason
		}
		info = append(info, fmt.Sprintf("Tool %d: %s\nArguments: %s\nReason for use: %s\nStatus: %s\nResult: %s\n",
			i+1, res.Tool, jsonText(res.Args), reason, res.Status, res.Result))
	}

	system := "You are a helpful research assistant. You've used various tools to gather information " +
		"in response to a query. Now, synthesize all the tool results into a comprehensive, " +
		"well-structured answer. Be sure to cite which tool provided which information."
	out, err := askAs(ctx, u.model, system, fmt.Sprintf("Original query: %s\n\n"+
		"Your initial thoughts: %s\n\n"+
		"TOOL RESULTS:\n%s\n\n"+
		"Based on these results, provide a comprehensive answer to the original query. "+
		"If the tools didn't provide adequate information, acknowledge the limitations.",
		s.Query, jsonText(s.Thoughts), strings.Join(info, "\n")))
	if err != nil {
		return s, err
	}
	s.FinalAnswer = out
	return s, nil
}
