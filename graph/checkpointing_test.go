package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/store"
	"github.com/smallnest/agentcases/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	Outline  string   `json:"outline"`
	Draft    string   `json:"draft"`
	Feedback []string `json:"feedback"`
	Approved bool     `json:"approved"`
}

func articleGraph(t *testing.T) *graph.StateRunnable[article] {
	t.Helper()
	g := graph.NewStateGraph[article]()
	g.AddNode("outline", "", func(ctx context.Context, a article) (article, error) {
		a.Outline = "1. intro 2. body"
		return a, nil
	})
	g.AddNode("draft", "", func(ctx context.Context, a article) (article, error) {
		a.Draft = "draft for " + a.Outline
		return a, nil
	})
	g.AddNode("feedback", "", func(ctx context.Context, a article) (article, error) {
		v, err := graph.Interrupt(ctx, a.Draft)
		if err != nil {
			return a, err
		}
		a.Feedback = append(a.Feedback, v.(string))
		a.Approved = true
		return a, nil
	})
	g.AddEdge("outline", "draft")
	g.AddEdge("draft", "feedback")
	g.AddEdge("feedback", graph.END)
	g.SetEntryPoint("outline")
	app, err := g.Compile()
	require.NoError(t, err)
	return app
}

func TestCheckpointListener_SaveAndResume(t *testing.T) {
	ctx := context.Background()
	st := memory.NewMemoryCheckpointStore()

	cl, err := graph.NewCheckpointListener[article](ctx, st, "thread-1")
	require.NoError(t, err)

	_, err = articleGraph(t).WithListeners(cl).InvokeWithConfig(ctx, article{}, &graph.Config{ThreadID: "thread-1"})
	var gi *graph.GraphInterrupt
	require.ErrorAs(t, err, &gi)
	require.NoError(t, cl.Err())
	assert.Equal(t, 2, cl.Version())

	cps, err := st.List(ctx, "thread-1")
	require.NoError(t, err)
	assert.Len(t, cps, 2)

	// A fresh process picks the run up from the store.
	state, next, err := graph.Resume[article](ctx, st, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"feedback"}, next)
	assert.Equal(t, "draft for 1. intro 2. body", state.Draft)

	cl2, err := graph.NewCheckpointListener[article](ctx, st, "thread-1")
	require.NoError(t, err)
	final, err := articleGraph(t).WithListeners(cl2).InvokeWithConfig(ctx, state, &graph.Config{
		ThreadID:    "thread-1",
		ResumeFrom:  next,
		ResumeValue: "looks good",
	})
	require.NoError(t, err)
	assert.True(t, final.Approved)
	assert.Equal(t, []string{"looks good"}, final.Feedback)
	assert.Equal(t, 3, cl2.Version())

	latest, err := store.Latest(ctx, st, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []string{graph.END}, latest.NextNodes)
}

func TestCheckpointListener_RequiresThread(t *testing.T) {
	_, err := graph.NewCheckpointListener[article](context.Background(), memory.NewMemoryCheckpointStore(), "")
	assert.Error(t, err)
}

func TestResume_UnknownThread(t *testing.T) {
	_, _, err := graph.Resume[article](context.Background(), memory.NewMemoryCheckpointStore(), "nope")
	assert.True(t, errors.Is(err, store.ErrCheckpointNotFound))
}

func TestCheckpointListener_FinishedThreadKeepsEnd(t *testing.T) {
	ctx := context.Background()
	st := memory.NewMemoryCheckpointStore()

	g := graph.NewStateGraph[article]()
	g.AddNode("a", "", func(ctx context.Context, a article) (article, error) {
		a.Approved = true
		return a, nil
	})
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")
	app, err := g.Compile()
	require.NoError(t, err)

	cl, err := graph.NewCheckpointListener[article](ctx, st, "done")
	require.NoError(t, err)
	_, err = app.WithListeners(cl).InvokeWithConfig(ctx, article{}, &graph.Config{ThreadID: "done"})
	require.NoError(t, err)

	latest, err := store.Latest(ctx, st, "done")
	require.NoError(t, err)
	assert.Equal(t, []string{graph.END}, latest.NextNodes)

	_, next, err := graph.Resume[article](ctx, st, "done")
	require.NoError(t, err)
	assert.Empty(t, graph.Pending(next))
	assert.Equal(t, []string{graph.END}, next)
}

func TestPending(t *testing.T) {
	nodes := []string{"a", graph.END, "b"}
	assert.Equal(t, []string{"a", "b"}, graph.Pending(nodes))
	assert.Equal(t, []string{"a", graph.END, "b"}, nodes)
	assert.Empty(t, graph.Pending([]string{graph.END}))
}
