// Package graph runs pipelines described as a graph of typed state transitions.
//
// A StateGraph[S] holds named nodes, each a function from S to S. Nodes are
// joined by unconditional edges, or by a conditional edge whose route
// function picks the next node from the current state. The special END
// marker terminates a run.
//
//	type Draft struct {
//		Topic    string
//		Approved bool
//	}
//
//	g := graph.NewStateGraph[Draft]()
//	g.AddNode("write", "Write a draft", write)
//	g.AddNode("review", "Ask a human", review)
//	g.AddEdge("write", "review")
//	g.AddConditionalEdge("review", func(ctx context.Context, d Draft) string {
//		if d.Approved {
//			return graph.END
//		}
//		return "write"
//	}, "write", graph.END)
//	g.SetEntryPoint("write")
//
//	app, _ := g.Compile()
//	final, err := app.Invoke(ctx, Draft{Topic: "Go generics"})
//
// # Execution
//
// A run proceeds in steps. All nodes active in a step receive the same input
// state; when several are active (fan-out through multiple edges) they run
// concurrently and their results are combined by the StateMerger. Every node
// can be retried according to a RetryPolicy, and panics become errors.
//
// # Interrupts
//
// A node may call Interrupt to ask for outside input. The run stops with a
// *GraphInterrupt; calling InvokeWithConfig again with ResumeFrom set to
// GraphInterrupt.NextNodes and ResumeValue set to the answer continues it.
// Config.InterruptBefore and Config.InterruptAfter stop a run around named
// nodes without any cooperation from the node.
//
// # Checkpoints
//
// A CheckpointListener saves the state after every step to a
// store.CheckpointStore, and Resume loads the latest one, so an interrupted
// run can continue in another process.
//
// # Scatter/gather
//
// Scatter runs one goroutine per input and joins them before returning,
// together with per-task and total timings.
package graph
