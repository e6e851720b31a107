package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a graph as Mermaid or Graphviz DOT.
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart, "TD" by default.
	Direction string
}

// DrawMermaid generates a top-down Mermaid flowchart.
func (e *Exporter[S]) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{})
}

// DrawMermaidWithOptions generates a Mermaid flowchart. Conditional edges are dashed and
// labelled "?" when the route has no declared targets.
func (e *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)
	sb.WriteString("    START([\"START\"])\n")
	for _, n := range e.graph.Nodes() {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidID(n.Name), n.Name)
	}
	if e.usesEnd() {
		sb.WriteString("    END([\"END\"])\n")
	}

	if e.graph.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", mermaidID(e.graph.entryPoint))
	}
	for _, edge := range e.graph.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(edge.From), mermaidID(edge.To))
	}
	for _, from := range e.conditionalSources() {
		ce := e.graph.conditionalEdges[from]
		if len(ce.Targets) == 0 {
			fmt.Fprintf(&sb, "    %s -.-> |?| %s\n", mermaidID(from), mermaidID(from))
			continue
		}
		for _, to := range ce.Targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", mermaidID(from), mermaidID(to))
		}
	}

	sb.WriteString("    style START fill:#90EE90\n")
	if e.usesEnd() {
		sb.WriteString("    style END fill:#FFB6C1\n")
	}
	return sb.String()
}

// DrawDOT generates a Graphviz DOT digraph.
func (e *Exporter[S]) DrawDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	if e.usesEnd() {
		sb.WriteString("    END [shape=ellipse, style=filled, fillcolor=lightpink];\n")
	}
	if e.graph.entryPoint != "" {
		fmt.Fprintf(&sb, "    START -> %q;\n", e.graph.entryPoint)
	}
	for _, edge := range e.graph.edges {
		fmt.Fprintf(&sb, "    %q -> %q;\n", edge.From, edge.To)
	}
	for _, from := range e.conditionalSources() {
		for _, to := range e.graph.conditionalEdges[from].Targets {
			fmt.Fprintf(&sb, "    %q -> %q [style=dashed];\n", from, to)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (e *Exporter[S]) usesEnd() bool {
	for _, edge := range e.graph.edges {
		if edge.To == END {
			return true
		}
	}
	for _, ce := range e.graph.conditionalEdges {
		for _, to := range ce.Targets {
			if to == END {
				return true
			}
		}
	}
	return false
}

func (e *Exporter[S]) conditionalSources() []string {
	sources := make([]string, 0, len(e.graph.conditionalEdges))
	for from := range e.graph.conditionalEdges {
		sources = append(sources, from)
	}
	sort.Strings(sources)
	return sources
}

// mermaidID keeps "END" and other reserved words from clashing with node names.
func mermaidID(name string) string {
	if name == END || name == "START" {
		return name
	}
	return "n_" + strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
