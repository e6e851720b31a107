// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Model replays scripted responses in order. When the script is exhausted
// it asks Respond, and without Respond it answers "No more responses".
type Model struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	calls     [][]llms.MessageContent

	// Respond produces an answer from the text of the last message.
	Respond func(prompt string) string
	// Err, when set, fails every call.
	Err error
}

var _ llms.Model = (*Model)(nil)

// New scripts plain text answers.
func New(texts ...string) *Model {
	m := &Model{}
	for _, t := range texts {
		m.responses = append(m.responses, Text(t))
	}
	return m
}

// NewFunc answers every call with respond.
func NewFunc(respond func(prompt string) string) *Model {
	return &Model{Respond: respond}
}

// Script appends responses.
func (m *Model) Script(responses ...*llms.ContentResponse) *Model {
	m.mu.Lock()
	m.responses = append(m.responses, responses...)
	m.mu.Unlock()
	return m
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]llms.MessageContent(nil), messages...))

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}
	if m.Respond != nil {
		return Text(m.Respond(lastText(messages))), nil
	}
	return Text("No more responses"), nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Calls returns the messages of every call so far.
func (m *Model) Calls() [][]llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]llms.MessageContent(nil), m.calls...)
}

// Prompts returns the text of the last message of every call.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = lastText(c)
	}
	return out
}

// Text is a response carrying only content.
func Text(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

// ToolCall is a response asking for one tool call with a single "input" argument.
func ToolCall(id, name, input string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						ID:   id,
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      name,
							Arguments: fmt.Sprintf(`{"input": %q}`, input),
						},
					},
				},
			},
		},
	}
}

func lastText(messages []llms.MessageContent) string {
	if len(messages) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range messages[len(messages)-1].Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
