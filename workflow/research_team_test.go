package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

func TestResearchTeam(t *testing.T) {
	model := llmtest.New(
		"```json\n[{\"topic\": \"Solar\", \"key_points\": \"cheap\", \"relevance\": \"high\"}]\n```",
		"Insights are hard to structure.",
		`{"strengths": ["broad"], "weaknesses": ["shallow", "dated"], "improvement_suggestions": ["add data"]}`,
		"Renewables are growing.",
	)

	out, err := NewResearchTeam(model).Run(context.Background(), "renewable energy")
	require.NoError(t, err)

	require.Len(t, out.Findings, 1)
	assert.Equal(t, "Solar", out.Findings[0].Topic)
	assert.Equal(t, stringList{"cheap"}, out.Findings[0].KeyPoints)
	assert.Equal(t, fallbackAnalysis, out.Analysis)
	assert.Equal(t, stringList{"shallow", "dated"}, out.Critique.Weaknesses)
	assert.Equal(t, "Renewables are growing.", out.Synthesis)

	entries := out.Messages.Entries()
	require.Len(t, entries, 4)
	var roles []string
	for _, e := range entries {
		roles = append(roles, e.Role)
	}
	assert.Equal(t, []string{"Researcher", "Analyst", "Critic", "Synthesizer"}, roles)
	assert.Equal(t, "I've gathered information on 1 topics related to 'renewable energy'.", entries[0].Content)
	assert.Equal(t, "I've analyzed the research and identified 1 key insights.", entries[1].Content)
	assert.Equal(t, "I've identified 2 weaknesses and have 1 suggestions for improvement.", entries[2].Content)

	calls := model.Calls()
	require.Len(t, calls, 4)
	assert.Contains(t, model.Prompts()[3], "CRITIQUE:")
}

func TestParseFindings(t *testing.T) {
	one := parseFindings(`{"topic": "Wind", "key_points": ["a", "b"]}`)
	require.Len(t, one, 1)
	assert.Equal(t, "Wind", one[0].Topic)

	assert.Equal(t, fallbackFindings, parseFindings("plain prose"))
}
