package prebuilt

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/agentcases/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// ErrToolNotFound is returned when an invocation names a tool the executor does not know.
var ErrToolNotFound = errors.New("tool not found")

// ToolInvocation is a single request to run a tool.
type ToolInvocation struct {
	Tool      string
	ToolInput string
}

// ToolExecutor runs tools by name.
type ToolExecutor struct {
	tools []tools.Tool
	index map[string]tools.Tool
}

// NewToolExecutor indexes tools by name. A later tool replaces an earlier one with the same name.
func NewToolExecutor(inputTools []tools.Tool) *ToolExecutor {
	e := &ToolExecutor{index: make(map[string]tools.Tool, len(inputTools))}
	position := make(map[string]int, len(inputTools))
	for _, t := range inputTools {
		if i, dup := position[t.Name()]; dup {
			e.tools[i] = t
		} else {
			position[t.Name()] = len(e.tools)
			e.tools = append(e.tools, t)
		}
		e.index[t.Name()] = t
	}
	return e
}

// Execute runs the named tool with the given input.
func (e *ToolExecutor) Execute(ctx context.Context, inv ToolInvocation) (string, error) {
	t, ok := e.index[inv.Tool]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, inv.Tool)
	}
	log.Debug("tool %s called with %q", inv.Tool, inv.ToolInput)
	return t.Call(ctx, inv.ToolInput)
}

// Tools returns the tools in registration order.
func (e *ToolExecutor) Tools() []tools.Tool {
	return append([]tools.Tool(nil), e.tools...)
}

// Definitions describes every tool as a function taking a single string "input".
func (e *ToolExecutor) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(e.tools))
	for _, t := range e.tools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}
