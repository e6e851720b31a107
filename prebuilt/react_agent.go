package prebuilt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/smallnest/agentcases/graph"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

const (
	// DefaultMaxIterations caps the number of model calls of one agent run.
	DefaultMaxIterations = 20

	// MaxIterationsMessage is the final answer of a run that hit the cap.
	MaxIterationsMessage = "Maximum iterations reached. Please try a simpler query."

	// DefaultSystemPrompt asks the model to reason in the ReAct format.
	DefaultSystemPrompt = `You are a helpful assistant. Use the provided tools to answer the user's question.
Follow this format:
1. Thought: what should I do next?
2. Action: the action to take (should be one of the provided tools)
3. Observation: the result of the action
4. ... (repeat Thought/Action/Observation as needed)
5. Final Answer: the final answer to the user's question

When you have enough information to answer the user's question, provide the Final Answer without using any tools.`
)

// AgentState is the state of a ReAct agent run.
type AgentState struct {
	Messages []llms.MessageContent `json:"messages"`
	// Iterations counts model calls
	Iterations int `json:"iterations"`
}

// NewAgentState starts a run with a single human message.
func NewAgentState(query string) AgentState {
	return AgentState{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, query)},
	}
}

type agentOptions struct {
	maxIterations int
	systemPrompt  string
	callOptions   []llms.CallOption
}

// Option configures CreateReactAgent.
type Option func(*agentOptions)

// WithMaxIterations caps the number of model calls. Non-positive values keep the default.
func WithMaxIterations(n int) Option {
	return func(o *agentOptions) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt. An empty prompt sends no system message.
func WithSystemPrompt(prompt string) Option {
	return func(o *agentOptions) {
		o.systemPrompt = prompt
	}
}

// WithCallOptions adds options to every model call, e.g. llms.WithTemperature.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(o *agentOptions) {
		o.callOptions = append(o.callOptions, opts...)
	}
}

// NewReactGraph builds the uncompiled agent graph: "agent" calls the model,
// "tools" runs the requested tool calls and loops back to "agent".
func NewReactGraph(model llms.Model, inputTools []tools.Tool, opts ...Option) *graph.StateGraph[AgentState] {
	options := &agentOptions{
		maxIterations: DefaultMaxIterations,
		systemPrompt:  DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(options)
	}

	toolExecutor := NewToolExecutor(inputTools)
	toolDefs := toolExecutor.Definitions()

	workflow := graph.NewStateGraph[AgentState]()

	workflow.AddNode("agent", "ReAct agent decision maker", func(ctx context.Context, state AgentState) (AgentState, error) {
		if state.Iterations >= options.maxIterations {
			return AgentState{
				Messages:   appendMessages(state.Messages, llms.TextParts(llms.ChatMessageTypeAI, MaxIterationsMessage)),
				Iterations: state.Iterations,
			}, nil
		}

		messages := state.Messages
		if options.systemPrompt != "" {
			messages = slices.Concat(
				[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, options.systemPrompt)},
				state.Messages,
			)
		}

		callOpts := slices.Clone(options.callOptions)
		if len(toolDefs) > 0 {
			callOpts = append(callOpts, llms.WithTools(toolDefs))
		}

		resp, err := model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			return state, err
		}
		if len(resp.Choices) == 0 {
			return state, fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}

		return AgentState{
			Messages:   appendMessages(state.Messages, aiMsg),
			Iterations: state.Iterations + 1,
		}, nil
	})

	workflow.AddNode("tools", "Tool execution node", func(ctx context.Context, state AgentState) (AgentState, error) {
		if len(state.Messages) == 0 {
			return state, fmt.Errorf("no messages to act on")
		}
		lastMsg := state.Messages[len(state.Messages)-1]
		if lastMsg.Role != llms.ChatMessageTypeAI {
			return state, fmt.Errorf("last message is not an AI message")
		}

		var toolMessages []llms.MessageContent
		for _, tc := range toolCalls(lastMsg) {
			res, err := toolExecutor.Execute(ctx, ToolInvocation{
				Tool:      tc.FunctionCall.Name,
				ToolInput: toolInput(tc.FunctionCall.Arguments),
			})
			if err != nil {
				res = fmt.Sprintf("Error: %v", err)
			}

			toolMessages = append(toolMessages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    res,
					},
				},
			})
		}

		return AgentState{
			Messages:   appendMessages(state.Messages, toolMessages...),
			Iterations: state.Iterations,
		}, nil
	})

	workflow.SetEntryPoint("agent")

	workflow.AddConditionalEdge("agent", func(ctx context.Context, state AgentState) string {
		if len(state.Messages) > 0 && len(toolCalls(state.Messages[len(state.Messages)-1])) > 0 {
			return "tools"
		}
		return graph.END
	}, "tools", graph.END)

	workflow.AddEdge("tools", "agent")

	return workflow
}

// CreateReactAgent creates a compiled ReAct agent.
func CreateReactAgent(model llms.Model, inputTools []tools.Tool, opts ...Option) (*graph.StateRunnable[AgentState], error) {
	return NewReactGraph(model, inputTools, opts...).Compile()
}

// FinalAnswer returns the text of the last AI message.
func FinalAnswer(state AgentState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := state.Messages[i]
		if msg.Role != llms.ChatMessageTypeAI {
			continue
		}
		if text := textOf(msg); text != "" {
			return text
		}
	}
	return ""
}

// ToolStep is one tool call made during a run together with its result.
type ToolStep struct {
	Tool   string
	Input  string
	Output string
}

// Steps lists the tool calls of a run in order.
func Steps(state AgentState) []ToolStep {
	results := make(map[string]string)
	for _, msg := range state.Messages {
		for _, part := range msg.Parts {
			if r, ok := part.(llms.ToolCallResponse); ok {
				results[r.ToolCallID] = r.Content
			}
		}
	}

	var steps []ToolStep
	for _, msg := range state.Messages {
		for _, tc := range toolCalls(msg) {
			steps = append(steps, ToolStep{
				Tool:   tc.FunctionCall.Name,
				Input:  toolInput(tc.FunctionCall.Arguments),
				Output: results[tc.ID],
			})
		}
	}
	return steps
}

// appendMessages never writes into the backing array of messages.
func appendMessages(messages []llms.MessageContent, more ...llms.MessageContent) []llms.MessageContent {
	return slices.Concat(messages, more)
}

func toolCalls(msg llms.MessageContent) []llms.ToolCall {
	var calls []llms.ToolCall
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.ToolCall); ok && tc.FunctionCall != nil {
			calls = append(calls, tc)
		}
	}
	return calls
}

// toolInput extracts the "input" argument, falling back to the raw arguments.
func toolInput(arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err == nil {
		if val, ok := args["input"].(string); ok {
			return val
		}
	}
	return arguments
}

func textOf(msg llms.MessageContent) string {
	var sb strings.Builder
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
