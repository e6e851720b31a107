// Package workflow contains multi-step pipelines built on the graph package.
//
// Every pipeline follows the same shape:
//
//	p := workflow.NewBreakdown(model)
//	state, err := p.Run(ctx, "A train travels 120 km in 2 hours...")
//
// Graph returns the uncompiled graph so that callers can draw it, and Run
// compiles and invokes it with a logging listener attached.
//
// # Pipelines
//
//   - Breakdown and Complexity: split a problem into steps before solving it
//   - Refinement: improve a solution until it scores well enough
//   - ResearchTeam: researcher, analyst, critic and synthesizer roles
//   - ToolUse: plan tool calls as JSON, run them and answer from the results
//   - Validation: route bad input to an error handler
//   - Review: human in the loop through graph.Interrupt
//   - ParallelResearch: research sub-questions concurrently with graph.Scatter
//   - DocumentEditor: versioned document with an edit history
//
// Model answers that should be JSON are decoded with structured.ParseJSON,
// and each pipeline substitutes a fixed default when decoding fails.
//
// # Human in the loop
//
// Review stops at its human_feedback node and asks a Reviewer for an answer.
// With WithCheckpointStore every step is saved, so a review whose reviewer
// failed can be continued later with Review.Resume.
package workflow
