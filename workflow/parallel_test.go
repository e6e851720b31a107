package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

func researchModel() *llmtest.Model {
	return llmtest.NewFunc(func(prompt string) string {
		switch {
		case strings.HasPrefix(prompt, "Synthesize these research findings"):
			return "combined answer"
		case strings.HasPrefix(prompt, "Extract the 3-5"):
			return "Key points:\n- point one\n- point two"
		case strings.HasPrefix(prompt, "Based on this research"):
			return "I cannot name sources."
		case strings.HasPrefix(prompt, "Research this question"):
			q, _, _ := strings.Cut(strings.TrimPrefix(prompt, "Research this question thoroughly: '"), "'")
			return "findings about " + q
		case strings.HasPrefix(prompt, "Break down this research question"):
			return `["q1", "q2", "q1", "q3"]`
		}
		return ""
	})
}

func TestParallelResearch(t *testing.T) {
	model := researchModel()

	out, err := NewParallelResearch(model).Run(context.Background(), "climate policy")
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2", "q3"}, out.SubQuestions)
	require.Len(t, out.Results, len(out.SubQuestions))
	for _, q := range out.SubQuestions {
		res, ok := out.Results[q]
		require.True(t, ok, q)
		assert.Equal(t, q, res.SubQuestion)
		assert.Equal(t, "findings about "+q, res.Findings)
		assert.Equal(t, []string{"point one", "point two"}, res.KeyPoints)
		assert.Equal(t, fallbackSources, res.Sources)
		assert.Empty(t, res.Error)
	}

	stats := out.Stats
	assert.GreaterOrEqual(t, stats.Total, time.Duration(0))
	require.Len(t, stats.PerQuestion, 3)
	for q, d := range stats.PerQuestion {
		assert.GreaterOrEqual(t, stats.Total, d, q)
		assert.Equal(t, out.Results[q].Duration, d)
	}
	assert.GreaterOrEqual(t, stats.Speedup, 0.0)

	assert.Equal(t, "combined answer", out.Synthesis)
	// breakdown, three sub-graphs of three calls, synthesis
	assert.Len(t, model.Calls(), 11)
}

func TestParallelResearch_SourcesUseTruncatedFindings(t *testing.T) {
	long := strings.Repeat("x", 600)
	model := llmtest.New(long, "- k", `["Nature"]`)
	p := NewParallelResearch(model)

	app, err := p.SubGraph().Compile()
	require.NoError(t, err)
	res, err := app.Invoke(context.Background(), ResearchResult{SubQuestion: "why"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Nature"}, res.Sources)
	prompt := model.Prompts()[2]
	assert.Contains(t, prompt, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}

func TestSubQuestions(t *testing.T) {
	assert.Equal(t, []string{"What is X?", "Why X?"}, SubQuestions("1. What is X?\n2. Why X?", "X"))

	many := SubQuestions(`["a","b","c","d","e","f","g"]`, "X")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, many)

	assert.Equal(t, []string{
		"What are the key aspects of AI?",
		"What challenges exist regarding AI?",
		"What are current solutions related to AI?",
	}, SubQuestions("I cannot help.", "AI"))
}
