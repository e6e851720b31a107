package prebuilt

import (
	"context"
	"testing"

	"github.com/smallnest/agentcases/internal/llmtest"
	"github.com/smallnest/agentcases/memory"
	"github.com/smallnest/agentcases/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

func TestConversationAgentRemembers(t *testing.T) {
	ctx := context.Background()
	model := llmtest.New("Nice to meet you, Ada!", "Your name is Ada.")
	mem := memory.NewSequentialMemory()

	agent, err := NewConversationAgent(model, []tools.Tool{&tool.Joke{}}, mem, WithSystemPrompt(""))
	require.NoError(t, err)
	assert.NotEmpty(t, agent.ThreadID())

	answer, err := agent.Chat(ctx, "Hi, my name is Ada")
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Ada!", answer)

	answer, err = agent.Chat(ctx, "What is my name?")
	require.NoError(t, err)
	assert.Equal(t, "Your name is Ada.", answer)

	second := model.Calls()[1]
	require.Len(t, second, 3)
	assert.Equal(t, llms.ChatMessageTypeHuman, second[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, second[1].Role)
	assert.Equal(t, "What is my name?", model.Prompts()[1])

	stats, err := agent.Memory().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMessages)
}

func TestConversationAgentUsesTools(t *testing.T) {
	ctx := context.Background()
	model := llmtest.New().Script(
		llmtest.ToolCall("c1", "joke", "food"),
		llmtest.Text("Here is one for you."),
	)

	agent, err := NewConversationAgent(model, []tools.Tool{&tool.Joke{Rand: tool.NewRand(1)}}, memory.NewWindowMemory(4))
	require.NoError(t, err)

	answer, err := agent.Chat(ctx, "Tell me a food joke")
	require.NoError(t, err)
	assert.Equal(t, "Here is one for you.", answer)

	msgs, err := agent.Memory().GetContext(ctx, "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, memory.RoleUser, msgs[0].Role)
	assert.Equal(t, memory.RoleAssistant, msgs[1].Role)
}
