package prebuilt

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/agentcases/internal/llmtest"
	"github.com/smallnest/agentcases/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

func TestReactAgentWithCalculator(t *testing.T) {
	model := llmtest.New().Script(
		llmtest.ToolCall("call-1", "calculator", "123 + 456"),
		llmtest.Text("123 + 456 = 579"),
	)

	agent, err := CreateReactAgent(model, []tools.Tool{&tool.Calculator{}})
	require.NoError(t, err)

	res, err := agent.Invoke(context.Background(), NewAgentState("What is 123 + 456?"))
	require.NoError(t, err)

	// human, ai tool call, tool response, ai answer
	require.Len(t, res.Messages, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, res.Messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, res.Messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeTool, res.Messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, res.Messages[3].Role)
	assert.Equal(t, 2, res.Iterations)

	toolResp, ok := res.Messages[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call-1", toolResp.ToolCallID)
	assert.Equal(t, "calculator", toolResp.Name)
	assert.Equal(t, "Result: 579", toolResp.Content)

	assert.Equal(t, "123 + 456 = 579", FinalAnswer(res))
	assert.Equal(t, []ToolStep{{Tool: "calculator", Input: "123 + 456", Output: "Result: 579"}}, Steps(res))

	calls := model.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, calls[0][0].Role)
}

func TestReactAgentUnknownTool(t *testing.T) {
	model := llmtest.New().Script(
		llmtest.ToolCall("call-1", "teleport", "mars"),
		llmtest.Text("I cannot do that."),
	)

	agent, err := CreateReactAgent(model, []tools.Tool{&tool.Calculator{}}, WithSystemPrompt(""))
	require.NoError(t, err)

	res, err := agent.Invoke(context.Background(), NewAgentState("Go to Mars"))
	require.NoError(t, err)

	toolResp := res.Messages[2].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, toolResp.Content, "Error: tool not found: teleport")
	assert.Equal(t, "I cannot do that.", FinalAnswer(res))

	assert.Equal(t, llms.ChatMessageTypeHuman, model.Calls()[0][0].Role)
}

func TestReactAgentMaxIterations(t *testing.T) {
	model := llmtest.New()
	for i := 0; i < 5; i++ {
		model.Script(llmtest.ToolCall("call", "calculator", "1 + 1"))
	}

	agent, err := CreateReactAgent(model, []tools.Tool{&tool.Calculator{}}, WithMaxIterations(2))
	require.NoError(t, err)

	res, err := agent.Invoke(context.Background(), NewAgentState("loop forever"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, model.Calls(), 2)
	assert.Equal(t, MaxIterationsMessage, FinalAnswer(res))
}

func TestReactAgentModelError(t *testing.T) {
	model := llmtest.New()
	model.Err = errors.New("quota exceeded")

	agent, err := CreateReactAgent(model, nil)
	require.NoError(t, err)

	_, err = agent.Invoke(context.Background(), NewAgentState("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestReactAgentDoesNotAliasInput(t *testing.T) {
	model := llmtest.New("done")
	agent, err := CreateReactAgent(model, nil)
	require.NoError(t, err)

	initial := NewAgentState("hi")
	initial.Messages = append(make([]llms.MessageContent, 0, 8), initial.Messages...)

	res, err := agent.Invoke(context.Background(), initial)
	require.NoError(t, err)
	assert.Len(t, initial.Messages, 1)
	assert.Len(t, res.Messages, 2)
	assert.Empty(t, initial.Messages[:2][1].Role)
}

func TestToolExecutor(t *testing.T) {
	exec := NewToolExecutor([]tools.Tool{
		tool.Pure("echo", "first", func(s string) string { return "1:" + s }),
		tool.Pure("upper", "upper", func(s string) string { return s }),
		tool.Pure("echo", "second", func(s string) string { return "2:" + s }),
	})

	out, err := exec.Execute(context.Background(), ToolInvocation{Tool: "echo", ToolInput: "x"})
	require.NoError(t, err)
	assert.Equal(t, "2:x", out)

	_, err = exec.Execute(context.Background(), ToolInvocation{Tool: "missing"})
	assert.ErrorIs(t, err, ErrToolNotFound)

	require.Len(t, exec.Tools(), 2)
	defs := exec.Definitions()
	assert.Equal(t, "echo", defs[0].Function.Name)
	assert.Equal(t, "second", defs[0].Function.Description)
	assert.Equal(t, "upper", defs[1].Function.Name)
}

func TestToolInput(t *testing.T) {
	assert.Equal(t, "beijing", toolInput(`{"input": "beijing"}`))
	assert.Equal(t, "raw text", toolInput("raw text"))
	assert.Equal(t, `{"city": "paris"}`, toolInput(`{"city": "paris"}`))
}
