package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/log"
)

// DefaultMaxRevisions is the number of revision rounds after which a draft
// is approved without asking.
const DefaultMaxRevisions = 5

// Feedback types.
const (
	FeedbackApprove = "approve"
	FeedbackReject  = "reject"
	FeedbackRevise  = "revise"
)

const (
	ApproveComment = "Content approved as-is."
	RejectComment  = "Content rejected. Please rewrite completely."
)

// Review statuses.
const (
	StatusDraftNeeded      = "draft_needed"
	StatusAwaitingFeedback = "awaiting_feedback"
	StatusRevising         = "revising"
	StatusComplete         = "complete"
)

// ErrNoCheckpointStore is returned by Resume when the review has no store.
var ErrNoCheckpointStore = errors.New("review has no checkpoint store")

// DefaultOutline replaces an outline the model returned empty.
var DefaultOutline = []string{
	"Introduction to the topic",
	"Main point 1",
	"Main point 2",
	"Conclusion and key takeaways",
}

// Feedback is a reviewer's answer to a draft.
type Feedback struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseFeedback reads a reviewer answer. "approve" and "reject" are matched
// case-insensitively; a blank answer approves; anything else is a revision
// request carrying the text.
func ParseFeedback(answer string) Feedback {
	fb := Feedback{Timestamp: time.Now()}
	text := strings.TrimSpace(answer)
	switch strings.ToLower(text) {
	case FeedbackApprove, "":
		fb.Type, fb.Content = FeedbackApprove, ApproveComment
	case FeedbackReject:
		fb.Type, fb.Content = FeedbackReject, RejectComment
	default:
		fb.Type, fb.Content = FeedbackRevise, text
	}
	return fb
}

// ReviewState is the state of the Review pipeline.
type ReviewState struct {
	ThreadID     string    `json:"thread_id"`
	Prompt       string    `json:"prompt"`
	Outline      []string  `json:"outline"`
	Draft        string    `json:"draft_content"`
	Feedback     *Feedback `json:"human_feedback,omitempty"`
	FinalContent string    `json:"final_content"`
	Status       string    `json:"status"`
	Revisions    int       `json:"revisions"`
}

// Reviewer answers a draft with "approve", "reject" or revision notes.
type Reviewer func(ctx context.Context, draft string, revision int) (string, error)

// Review writes content for a prompt and loops on human feedback until the
// reviewer approves it.
type Review struct {
	model llms.Model
	opts  options
}

func NewReview(model llms.Model, opts ...Option) *Review {
	return &Review{model: model, opts: newOptions(opts)}
}

// Graph returns generate_outline -> draft_content -> human_feedback ->
// (finalize | revise_content -> human_feedback).
func (r *Review) Graph() *graph.StateGraph[ReviewState] {
	g := graph.NewStateGraph[ReviewState]()
	g.AddNode("generate_outline", "Outline the content", r.outline)
	g.AddNode("draft_content", "Write a draft from the outline", r.draft)
	g.AddNode("human_feedback", "Wait for the reviewer", r.humanFeedback)
	g.AddNode("revise_content", "Revise the draft from feedback", r.revise)
	g.AddNode("finalize", "Accept the approved draft", finalizeReview)

	g.AddEdge("generate_outline", "draft_content")
	g.AddEdge("draft_content", "human_feedback")
	g.AddConditionalEdge("human_feedback", func(_ context.Context, s ReviewState) string {
		if s.Status == StatusComplete {
			return "finalize"
		}
		return "revise_content"
	}, "finalize", "revise_content")
	g.AddEdge("revise_content", "human_feedback")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("generate_outline")
	return g
}

// Run starts a new review thread and asks reviewer at every interrupt.
func (r *Review) Run(ctx context.Context, prompt string, reviewer Reviewer) (ReviewState, error) {
	threadID := uuid.NewString()
	app, err := r.app(ctx, threadID)
	if err != nil {
		return ReviewState{}, err
	}
	initial := ReviewState{ThreadID: threadID, Prompt: prompt, Status: StatusDraftNeeded}
	return r.drive(ctx, app, initial, &graph.Config{ThreadID: threadID}, reviewer)
}

// Resume continues a review thread from its latest checkpoint.
func (r *Review) Resume(ctx context.Context, threadID string, reviewer Reviewer) (ReviewState, error) {
	if r.opts.store == nil {
		return ReviewState{}, ErrNoCheckpointStore
	}
	state, next, err := graph.Resume[ReviewState](ctx, r.opts.store, threadID)
	if err != nil {
		return state, err
	}
	next = graph.Pending(next)
	if len(next) == 0 {
		return state, nil
	}
	app, err := r.app(ctx, threadID)
	if err != nil {
		return state, err
	}
	log.Info("resuming review %s at %v", threadID, next)
	return r.drive(ctx, app, state, &graph.Config{ThreadID: threadID, ResumeFrom: next}, reviewer)
}

func (r *Review) app(ctx context.Context, threadID string) (*graph.StateRunnable[ReviewState], error) {
	app, err := compile(r.Graph(), r.opts)
	if err != nil {
		return nil, err
	}
	if r.opts.store == nil {
		return app, nil
	}
	cl, err := graph.NewCheckpointListener[ReviewState](ctx, r.opts.store, threadID)
	if err != nil {
		return nil, err
	}
	return app.WithListeners(cl), nil
}

// drive runs the app and answers every interrupt with the reviewer until
// the run completes.
func (r *Review) drive(ctx context.Context, app *graph.StateRunnable[ReviewState], state ReviewState,
	cfg *graph.Config, reviewer Reviewer) (ReviewState, error) {
	for {
		out, err := app.InvokeWithConfig(ctx, state, cfg)
		var gi *graph.GraphInterrupt
		if !errors.As(err, &gi) {
			return out, err
		}
		answer, err := reviewer(ctx, out.Draft, out.Revisions)
		if err != nil {
			return out, fmt.Errorf("review %s paused at %s: %w", cfg.ThreadID, gi.Node, err)
		}
		state = out
		cfg = &graph.Config{ThreadID: cfg.ThreadID, ResumeFrom: gi.NextNodes, ResumeValue: answer}
	}
}

// parseOutline reads a JSON array, else the non-empty lines of text.
func parseOutline(text string) []string {
	if items, ok := structured.ParseJSON[[]string](text, nil); ok && len(items) > 0 {
		return items
	}
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if item := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "- ")); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return slices.Clone(DefaultOutline)
	}
	return items
}

func (r *Review) outline(ctx context.Context, s ReviewState) (ReviewState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf("Create a brief outline for content with this prompt: '%s'. "+
		"Return a JSON array of 3-5 main points to cover.", s.Prompt))
	if err != nil {
		return s, err
	}
	s.Outline = parseOutline(out)
	s.Status = StatusDraftNeeded
	return s, nil
}

func (r *Review) draft(ctx context.Context, s ReviewState) (ReviewState, error) {
	out, err := ask(ctx, r.model, fmt.Sprintf("Write content based on this prompt: '%s' "+
		"Follow this outline: %s. "+
		"Create engaging, informative content for a general audience.", s.Prompt, quoteList(s.Outline)))
	if err != nil {
		return s, err
	}
	s.Draft = out
	s.Status = StatusAwaitingFeedback
	return s, nil
}

func (r *Review) humanFeedback(ctx context.Context, s ReviewState) (ReviewState, error) {
	var fb Feedback
	if s.Revisions >= r.opts.maxRevisions {
		log.Info("review reached %d revisions, approving", s.Revisions)
		fb = ParseFeedback(FeedbackApprove)
	} else {
		answer, err := graph.Interrupt(ctx, s.Draft)
		if err != nil {
			return s, err
		}
		text, _ := answer.(string)
		fb = ParseFeedback(text)
	}

	s.Feedback = &fb
	if fb.Type == FeedbackApprove {
		s.FinalContent = s.Draft
		s.Status = StatusComplete
	} else {
		s.Status = StatusRevising
	}
	return s, nil
}

func (r *Review) revise(ctx context.Context, s ReviewState) (ReviewState, error) {
	var prompt string
	if s.Feedback != nil && s.Feedback.Type == FeedbackReject {
		prompt = fmt.Sprintf("The previous draft was rejected. Create a completely new version addressing: '%s'. "+
			"Original prompt: '%s'", s.Feedback.Content, s.Prompt)
	} else {
		var notes string
		if s.Feedback != nil {
			notes = s.Feedback.Content
		}
		prompt = fmt.Sprintf("Revise this content based on the following feedback:\n\n"+
			"ORIGINAL CONTENT:\n%s\n\n"+
			"FEEDBACK: %s\n\n"+
			"Provide a revised version that addresses all feedback points.", s.Draft, notes)
	}
	out, err := ask(ctx, r.model, prompt)
	if err != nil {
		return s, err
	}
	s.Draft = out
	s.Revisions++
	s.Status = StatusAwaitingFeedback
	return s, nil
}

func finalizeReview(_ context.Context, s ReviewState) (ReviewState, error) {
	if s.FinalContent == "" {
		s.FinalContent = s.Draft
	}
	s.Status = StatusComplete
	return s, nil
}
