package prebuilt

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/memory"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// ConversationAgent is a ReAct agent that remembers earlier turns.
type ConversationAgent struct {
	runnable *graph.StateRunnable[AgentState]
	memory   memory.Memory
	threadID string
}

// NewConversationAgent creates an agent whose history is kept in mem.
func NewConversationAgent(model llms.Model, inputTools []tools.Tool, mem memory.Memory, opts ...Option) (*ConversationAgent, error) {
	runnable, err := CreateReactAgent(model, inputTools, opts...)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.NewSequentialMemory()
	}
	return &ConversationAgent{
		runnable: runnable,
		memory:   mem,
		threadID: uuid.NewString(),
	}, nil
}

// ThreadID returns the session ID.
func (c *ConversationAgent) ThreadID() string {
	return c.threadID
}

// Memory returns the conversation memory.
func (c *ConversationAgent) Memory() memory.Memory {
	return c.memory
}

// Chat answers text in the context of the remembered conversation and
// records both the question and the answer.
func (c *ConversationAgent) Chat(ctx context.Context, text string) (string, error) {
	history, err := c.memory.GetContext(ctx, text)
	if err != nil {
		return "", err
	}

	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llms.TextParts(chatRole(m.Role), m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, text))

	state, err := c.runnable.InvokeWithConfig(ctx, AgentState{Messages: messages}, &graph.Config{ThreadID: c.threadID})
	if err != nil {
		return "", err
	}
	answer := FinalAnswer(state)

	if err := c.memory.AddMessage(ctx, memory.NewMessage(memory.RoleUser, text)); err != nil {
		return "", err
	}
	if err := c.memory.AddMessage(ctx, memory.NewMessage(memory.RoleAssistant, answer)); err != nil {
		return "", err
	}
	return answer, nil
}

func chatRole(role string) llms.ChatMessageType {
	switch role {
	case memory.RoleAssistant:
		return llms.ChatMessageTypeAI
	case memory.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
