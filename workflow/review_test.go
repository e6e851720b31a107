package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/llmtest"
	"github.com/smallnest/agentcases/store"
	storemem "github.com/smallnest/agentcases/store/memory"
)

// scripted answers with the given replies in order and records the drafts
// it was shown.
func scripted(replies ...string) (Reviewer, *[]string) {
	var seen []string
	return func(_ context.Context, draft string, _ int) (string, error) {
		seen = append(seen, draft)
		if len(replies) == 0 {
			return FeedbackApprove, nil
		}
		r := replies[0]
		replies = replies[1:]
		return r, nil
	}, &seen
}

func TestParseFeedback(t *testing.T) {
	tests := []struct {
		answer      string
		wantType    string
		wantContent string
	}{
		{"approve", FeedbackApprove, ApproveComment},
		{"  APPROVE ", FeedbackApprove, ApproveComment},
		{"", FeedbackApprove, ApproveComment},
		{"Reject", FeedbackReject, RejectComment},
		{" add an example ", FeedbackRevise, "add an example"},
	}
	for _, tt := range tests {
		fb := ParseFeedback(tt.answer)
		assert.Equal(t, tt.wantType, fb.Type, tt.answer)
		assert.Equal(t, tt.wantContent, fb.Content, tt.answer)
		assert.False(t, fb.Timestamp.IsZero())
	}
}

func TestParseOutline(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseOutline(`["a", "b"]`))
	assert.Equal(t, []string{"Intro", "Body"}, parseOutline("- Intro\n\n- Body -\n"))
	assert.Equal(t, DefaultOutline, parseOutline("  \n"))
}

func TestReview_Approve(t *testing.T) {
	model := llmtest.New(`["Why", "How"]`, "first draft")
	reviewer, seen := scripted("approve")

	out, err := NewReview(model).Run(context.Background(), "Write about Go", reviewer)
	require.NoError(t, err)

	assert.Equal(t, []string{"Why", "How"}, out.Outline)
	assert.Equal(t, "first draft", out.FinalContent)
	assert.Equal(t, StatusComplete, out.Status)
	assert.Equal(t, 0, out.Revisions)
	require.NotNil(t, out.Feedback)
	assert.Equal(t, FeedbackApprove, out.Feedback.Type)
	assert.NotEmpty(t, out.ThreadID)
	assert.Equal(t, []string{"first draft"}, *seen)
	assert.Contains(t, model.Prompts()[1], "['Why', 'How']")
}

func TestReview_ReviseThenApprove(t *testing.T) {
	model := llmtest.New(`["Why"]`, "first draft", "second draft")
	reviewer, seen := scripted("make it shorter", "approve")

	out, err := NewReview(model).Run(context.Background(), "Write about Go", reviewer)
	require.NoError(t, err)

	assert.Equal(t, "second draft", out.FinalContent)
	assert.Equal(t, 1, out.Revisions)
	assert.Equal(t, []string{"first draft", "second draft"}, *seen)

	prompts := model.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[2], "ORIGINAL CONTENT:\nfirst draft")
	assert.Contains(t, prompts[2], "FEEDBACK: make it shorter")
}

func TestReview_Reject(t *testing.T) {
	model := llmtest.New(`["Why"]`, "first draft", "rewrite")
	reviewer, _ := scripted("reject", "approve")

	out, err := NewReview(model).Run(context.Background(), "Write about Go", reviewer)
	require.NoError(t, err)

	assert.Equal(t, "rewrite", out.FinalContent)
	prompt := model.Prompts()[2]
	assert.Contains(t, prompt, "The previous draft was rejected")
	assert.Contains(t, prompt, RejectComment)
	assert.Contains(t, prompt, "Original prompt: 'Write about Go'")
}

func TestReview_RevisionCap(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "text" })
	calls := 0
	reviewer := func(context.Context, string, int) (string, error) {
		calls++
		return "more detail", nil
	}

	out, err := NewReview(model, WithMaxRevisions(2)).Run(context.Background(), "topic", reviewer)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, out.Revisions)
	assert.Equal(t, StatusComplete, out.Status)
	assert.Equal(t, "text", out.FinalContent)
	assert.Equal(t, FeedbackApprove, out.Feedback.Type)
}

func TestReview_ResumeFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	st := storemem.NewMemoryCheckpointStore()
	model := llmtest.New(`["Why"]`, "first draft")
	review := NewReview(model, WithCheckpointStore(st))

	gone := errors.New("reviewer went home")
	paused, err := review.Run(ctx, "Write about Go", func(context.Context, string, int) (string, error) {
		return "", gone
	})
	require.ErrorIs(t, err, gone)
	require.NotEmpty(t, paused.ThreadID)
	assert.Equal(t, "first draft", paused.Draft)

	latest, err := store.Latest(ctx, st, paused.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, []string{"human_feedback"}, latest.NextNodes)

	reviewer, seen := scripted("approve")
	out, err := review.Resume(ctx, paused.ThreadID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, "first draft", out.FinalContent)
	assert.Equal(t, StatusComplete, out.Status)
	assert.Equal(t, []string{"first draft"}, *seen)
	assert.Len(t, model.Calls(), 2)

	done, err := store.Latest(ctx, st, paused.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, []string{graph.END}, done.NextNodes)

	// A finished thread resumes to its final state without asking again.
	again, err := review.Resume(ctx, paused.ThreadID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, again.Status)
	assert.Len(t, *seen, 1)
}

func TestReview_ResumeNeedsStore(t *testing.T) {
	_, err := NewReview(llmtest.New()).Resume(context.Background(), "thread", nil)
	assert.ErrorIs(t, err, ErrNoCheckpointStore)
}
