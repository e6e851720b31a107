package graph_test

import (
	"context"
	"testing"

	"github.com/smallnest/agentcases/graph"
	"github.com/stretchr/testify/assert"
)

func TestExporter_Mermaid(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("analyze", "", step("analyze"))
	g.AddNode("simple-path", "", step("simple"))
	g.AddNode("complex path", "", step("complex"))
	g.AddConditionalEdge("analyze", func(context.Context, counter) string { return "simple-path" }, "simple-path", "complex path")
	g.AddEdge("simple-path", graph.END)
	g.AddEdge("complex path", graph.END)
	g.SetEntryPoint("analyze")

	out := graph.NewExporter(g).DrawMermaid()
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "START --> n_analyze")
	assert.Contains(t, out, "n_analyze -.-> n_simple_path")
	assert.Contains(t, out, "n_analyze -.-> n_complex_path")
	assert.Contains(t, out, "n_simple_path --> END")
	assert.Contains(t, out, "style END fill:#FFB6C1")

	lr := graph.NewExporter(g).DrawMermaidWithOptions(graph.MermaidOptions{Direction: "LR"})
	assert.Contains(t, lr, "flowchart LR")
}

func TestExporter_DOT(t *testing.T) {
	g := graph.NewStateGraph[counter]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", step("b"))
	g.AddEdge("a", "b")
	g.AddConditionalEdge("b", func(context.Context, counter) string { return graph.END }, "a", graph.END)
	g.SetEntryPoint("a")

	out := graph.NewExporter(g).DrawDOT()
	assert.Contains(t, out, "digraph G {")
	assert.Contains(t, out, `START -> "a";`)
	assert.Contains(t, out, `"a" -> "b";`)
	assert.Contains(t, out, `"b" -> "END" [style=dashed];`)
}
