package graph_test

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallnest/agentcases/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
	Path  []string
}

func (c counter) visit(name string) counter {
	c.Path = append(slices.Clone(c.Path), name)
	return c
}

func step(name string) func(ctx context.Context, c counter) (counter, error) {
	return func(ctx context.Context, c counter) (counter, error) {
		c = c.visit(name)
		c.Count++
		return c, nil
	}
}

func TestStateGraph_Linear(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("a", "first", step("a"))
	g.AddNode("b", "second", step("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	initial := counter{}
	final, err := app.Invoke(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, 2, final.Count)
	assert.Equal(t, []string{"a", "b"}, final.Path)
	assert.Empty(t, initial.Path, "input state must not be modified")
}

func TestStateGraph_ConditionalLoop(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("inc", "increment", step("inc"))
	g.AddNode("done", "finish", step("done"))
	g.AddConditionalEdge("inc", func(ctx context.Context, c counter) string {
		if c.Count >= 3 {
			return "done"
		}
		return "inc"
	}, "inc", "done")
	g.AddEdge("done", graph.END)
	g.SetEntryPoint("inc")

	app, err := g.Compile()
	require.NoError(t, err)

	final, err := app.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"inc", "inc", "inc", "done"}, final.Path)
}

func TestStateGraph_CompileErrors(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	_, err := g.Compile()
	assert.ErrorIs(t, err, graph.ErrEntryPointNotSet)

	g.SetEntryPoint("missing")
	_, err = g.Compile()
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	g.AddNode("a", "", step("a"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "ghost")
	_, err = g.Compile()
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	g2 := graph.NewStateGraph[counter]()
	g2.AddNode("a", "", step("a"))
	g2.SetEntryPoint("a")
	g2.AddConditionalEdge("a", func(context.Context, counter) string { return graph.END }, "nowhere")
	_, err = g2.Compile()
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestStateGraph_RoutingErrors(t *testing.T) {
	t.Run("no outgoing edge", func(t *testing.T) {
		g := graph.NewStateGraph[counter]()
		g.AddNode("a", "", step("a"))
		g.SetEntryPoint("a")
		app, err := g.Compile()
		require.NoError(t, err)

		_, err = app.Invoke(context.Background(), counter{})
		assert.ErrorIs(t, err, graph.ErrNoOutgoingEdge)
	})

	t.Run("undeclared target", func(t *testing.T) {
		g := graph.NewStateGraph[counter]()
		g.AddNode("a", "", step("a"))
		g.AddNode("b", "", step("b"))
		g.AddEdge("b", graph.END)
		g.SetEntryPoint("a")
		g.AddConditionalEdge("a", func(context.Context, counter) string { return "b" }, graph.END)
		app, err := g.Compile()
		require.NoError(t, err)

		_, err = app.Invoke(context.Background(), counter{})
		assert.ErrorIs(t, err, graph.ErrInvalidRoute)
	})

	t.Run("empty route", func(t *testing.T) {
		g := graph.NewStateGraph[counter]()
		g.AddNode("a", "", step("a"))
		g.SetEntryPoint("a")
		g.AddConditionalEdge("a", func(context.Context, counter) string { return "" })
		app, err := g.Compile()
		require.NoError(t, err)

		_, err = app.Invoke(context.Background(), counter{})
		assert.ErrorContains(t, err, "empty next node")
	})
}

func TestStateGraph_MaxSteps(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("spin", "", step("spin"))
	g.AddEdge("spin", "spin")
	g.SetEntryPoint("spin")
	app, err := g.Compile()
	require.NoError(t, err)

	final, err := app.InvokeWithConfig(context.Background(), counter{}, &graph.Config{MaxSteps: 5})
	assert.ErrorIs(t, err, graph.ErrMaxStepsExceeded)
	assert.Equal(t, 5, final.Count)
}

func TestStateGraph_NodeErrorKeepsLastState(t *testing.T) {
	boom := errors.New("boom")
	g := graph.NewStateGraph[counter]()
	g.AddNode("a", "", step("a"))
	g.AddNode("fail", "", func(context.Context, counter) (counter, error) { return counter{}, boom })
	g.AddEdge("a", "fail")
	g.AddEdge("fail", graph.END)
	g.SetEntryPoint("a")
	app, err := g.Compile()
	require.NoError(t, err)

	final, err := app.Invoke(context.Background(), counter{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "error in node fail")
	assert.Equal(t, []string{"a"}, final.Path)
}

func TestStateGraph_PanicBecomesError(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("a", "", func(context.Context, counter) (counter, error) { panic("kaboom") })
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")
	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), counter{})
	assert.ErrorContains(t, err, "kaboom")
}

func TestStateGraph_Retry(t *testing.T) {
	var calls atomic.Int32
	g := graph.NewStateGraph[counter]()
	g.AddNode("flaky", "", func(ctx context.Context, c counter) (counter, error) {
		if calls.Add(1) < 3 {
			return c, errors.New("rate limit exceeded")
		}
		c.Count = 42
		return c, nil
	})
	g.AddEdge("flaky", graph.END)
	g.SetEntryPoint("flaky")
	g.SetRetryPolicy(&graph.RetryPolicy{
		MaxRetries:      3,
		BackoffStrategy: graph.ExponentialBackoff,
		BaseDelay:       time.Millisecond,
		RetryableErrors: []string{"rate limit"},
	})
	app, err := g.Compile()
	require.NoError(t, err)

	final, err := app.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, 42, final.Count)
	assert.EqualValues(t, 3, calls.Load())
}

func TestStateGraph_RetrySkipsNonRetryable(t *testing.T) {
	var calls atomic.Int32
	g := graph.NewStateGraph[counter]()
	g.AddNode("bad", "", func(ctx context.Context, c counter) (counter, error) {
		calls.Add(1)
		return c, errors.New("invalid input")
	})
	g.AddEdge("bad", graph.END)
	g.SetEntryPoint("bad")
	g.SetRetryPolicy(&graph.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, RetryableErrors: []string{"timeout"}})
	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), counter{})
	assert.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestStateGraph_FanOutWithMerger(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("start", "", step("start"))
	g.AddNode("left", "", func(ctx context.Context, c counter) (counter, error) {
		time.Sleep(10 * time.Millisecond)
		c.Count += 10
		return c, nil
	})
	g.AddNode("right", "", func(ctx context.Context, c counter) (counter, error) {
		c.Count += 100
		return c, nil
	})
	g.AddNode("join", "", step("join"))
	g.AddEdge("start", "left")
	g.AddEdge("start", "right")
	g.AddEdge("left", "join")
	g.AddEdge("right", "join")
	g.AddEdge("join", graph.END)
	g.SetEntryPoint("start")
	g.SetStateMerger(func(ctx context.Context, current counter, results []counter) (counter, error) {
		merged := current
		for _, r := range results {
			merged.Count += r.Count - current.Count
		}
		return merged, nil
	})
	app, err := g.Compile()
	require.NoError(t, err)

	var joins atomic.Int32
	app = app.WithListeners(graph.NodeListenerFunc[counter](func(ctx context.Context, e graph.NodeEvent[counter]) {
		if e.Type == graph.EventNodeStart && e.Node == "join" {
			joins.Add(1)
		}
	}))

	final, err := app.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	// start(+1) + left(+10) + right(+100) + join(+1), join runs once
	assert.Equal(t, 112, final.Count)
	assert.EqualValues(t, 1, joins.Load())
}

func TestStateGraph_InterruptBeforeAndAfter(t *testing.T) {
	build := func() *graph.StateRunnable[counter] {
		g := graph.NewStateGraph[counter]()
		g.AddNode("a", "", step("a"))
		g.AddNode("b", "", step("b"))
		g.AddNode("c", "", step("c"))
		g.AddEdge("a", "b")
		g.AddEdge("b", "c")
		g.AddEdge("c", graph.END)
		g.SetEntryPoint("a")
		app, err := g.Compile()
		require.NoError(t, err)
		return app
	}
	ctx := context.Background()

	app := build()
	state, err := app.InvokeWithConfig(ctx, counter{}, &graph.Config{InterruptBefore: []string{"b"}})
	var gi *graph.GraphInterrupt
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, "b", gi.Node)
	assert.Equal(t, []string{"b"}, gi.NextNodes)
	assert.Equal(t, []string{"a"}, state.Path)

	// Resuming from b does not stop before b again.
	final, err := app.InvokeWithConfig(ctx, state, &graph.Config{InterruptBefore: []string{"b"}, ResumeFrom: gi.NextNodes})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, final.Path)

	state, err = build().InvokeWithConfig(ctx, counter{}, &graph.Config{InterruptAfter: []string{"b"}})
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, []string{"c"}, gi.NextNodes)
	assert.Equal(t, []string{"a", "b"}, state.Path)
}

func TestStateGraph_DynamicInterrupt(t *testing.T) {
	type review struct {
		Drafts   int
		Feedback []string
		Approved bool
	}

	g := graph.NewStateGraph[review]()
	g.AddNode("draft", "", func(ctx context.Context, r review) (review, error) {
		r.Drafts++
		return r, nil
	})
	g.AddNode("ask", "", func(ctx context.Context, r review) (review, error) {
		answer, err := graph.Interrupt(ctx, "approve?")
		if err != nil {
			return r, err
		}
		text := answer.(string)
		r.Feedback = append(slices.Clone(r.Feedback), text)
		r.Approved = text == "approve"
		return r, nil
	})
	g.AddEdge("draft", "ask")
	g.AddConditionalEdge("ask", func(ctx context.Context, r review) string {
		if r.Approved {
			return graph.END
		}
		return "draft"
	}, "draft", graph.END)
	g.SetEntryPoint("draft")
	app, err := g.Compile()
	require.NoError(t, err)

	ctx := context.Background()
	state, err := app.Invoke(ctx, review{})
	var gi *graph.GraphInterrupt
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, "ask", gi.Node)
	assert.Equal(t, "approve?", gi.InterruptValue)

	// The first answer asks for another draft; the run must stop again at ask
	// rather than reuse the answer.
	state, err = app.InvokeWithConfig(ctx, state, &graph.Config{ResumeFrom: gi.NextNodes, ResumeValue: "more detail"})
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, 2, state.Drafts)

	final, err := app.InvokeWithConfig(ctx, state, &graph.Config{ResumeFrom: gi.NextNodes, ResumeValue: "approve"})
	require.NoError(t, err)
	assert.True(t, final.Approved)
	assert.Equal(t, []string{"more detail", "approve"}, final.Feedback)
}

func TestStateGraph_ThreadIDInContext(t *testing.T) {
	var seen string
	g := graph.NewStateGraph[counter]()
	g.AddNode("a", "", func(ctx context.Context, c counter) (counter, error) {
		seen = graph.ThreadID(ctx)
		return c, nil
	})
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")
	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.InvokeWithConfig(context.Background(), counter{}, &graph.Config{ThreadID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", seen)
}

func TestTimingListener(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("slow", "", func(ctx context.Context, c counter) (counter, error) {
		time.Sleep(5 * time.Millisecond)
		return c, nil
	})
	g.AddEdge("slow", graph.END)
	g.SetEntryPoint("slow")
	app, err := g.Compile()
	require.NoError(t, err)

	timing := graph.NewTimingListener[counter]()
	_, err = app.WithListeners(timing, graph.LoggingListener[counter]{}).Invoke(context.Background(), counter{})
	require.NoError(t, err)

	assert.Len(t, timing.Durations()["slow"], 1)
	assert.GreaterOrEqual(t, timing.Total("slow"), 5*time.Millisecond)
}
