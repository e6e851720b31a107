package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

func TestBreakdown(t *testing.T) {
	model := llmtest.New(`["Find speed", "Multiply"]`, "60 km/h * 3 h = 180 km", "180 km")

	out, err := NewBreakdown(model).Run(context.Background(), "How far does it go?")
	require.NoError(t, err)

	assert.Equal(t, []string{"Find speed", "Multiply"}, out.Steps)
	assert.Equal(t, "60 km/h * 3 h = 180 km", out.Solution)
	assert.Equal(t, "180 km", out.FinalAnswer)

	prompts := model.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[1], "['Find speed', 'Multiply']")
	assert.Contains(t, prompts[2], "60 km/h * 3 h = 180 km")
}

func TestBreakdown_MalformedStepsUseDefault(t *testing.T) {
	model := llmtest.New("First think, then answer.", "solution", "answer")

	out, err := NewBreakdown(model).Run(context.Background(), "problem")
	require.NoError(t, err)
	assert.Equal(t, DefaultSteps, out.Steps)

	out.Steps[0] = "changed"
	assert.Equal(t, "Understand the problem", DefaultSteps[0])
}

func TestBreakdown_ModelError(t *testing.T) {
	model := llmtest.New()
	model.Err = errors.New("boom")

	_, err := NewBreakdown(model).Run(context.Background(), "problem")
	assert.ErrorContains(t, err, "boom")
}

func TestComplexity_Simple(t *testing.T) {
	model := llmtest.New("This is SIMPLE.", "4", "The answer is 4")

	out, err := NewComplexity(model).Run(context.Background(), "2 + 2")
	require.NoError(t, err)

	assert.Equal(t, Simple, out.Complexity)
	assert.Equal(t, []string{"Direct calculation"}, out.Steps)
	assert.Equal(t, "The answer is 4", out.FinalAnswer)
	assert.Len(t, model.Calls(), 3)
}

func TestComplexity_Complex(t *testing.T) {
	model := llmtest.New("complex", "not a list", "worked solution", "final")

	out, err := NewComplexity(model).Run(context.Background(), "Plan a city budget")
	require.NoError(t, err)

	assert.Equal(t, Complex, out.Complexity)
	assert.Equal(t, DefaultComplexSteps, out.Steps)
	assert.Equal(t, "worked solution", out.Solution)
	assert.Equal(t, "final", out.FinalAnswer)

	prompts := model.Prompts()
	require.Len(t, prompts, 4)
	assert.Contains(t, prompts[2], "Solve this complex problem")
}
