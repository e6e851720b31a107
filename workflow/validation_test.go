package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantResult string
		wantStatus string
		wantCalls  int
	}{
		{
			name:       "valid",
			input:      "LangGraph builds stateful agents.",
			wantResult: "A library for agents.",
			wantStatus: StatusSuccess,
			wantCalls:  1,
		},
		{
			name:       "too short",
			input:      " hi ",
			wantResult: "[RECOVERED] Could not process the input due to validation error. Please provide longer text.",
			wantStatus: StatusRecovered,
		},
		{
			name:       "empty",
			input:      "",
			wantResult: "[RECOVERED] Could not process the input due to validation error. Please provide longer text.",
			wantStatus: StatusRecovered,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := llmtest.New("A library for agents.")

			out, err := NewValidation(model).Run(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, out.Result)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Len(t, model.Calls(), tt.wantCalls)
		})
	}
}

func TestFinalizeResult(t *testing.T) {
	out, err := finalizeResult(context.Background(), ValidationState{Status: StatusError})
	require.NoError(t, err)
	assert.Equal(t, "[ERROR] No result available", out.Result)
}
