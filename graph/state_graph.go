package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// StateGraph is a set of named state transitions connected by edges.
// The type parameter S is the state record threaded through every node;
// nodes receive a copy and return the next value.
//
//	g := graph.NewStateGraph[Problem]()
//	g.AddNode("solve", "Solve the problem", solve)
//	g.AddEdge("solve", graph.END)
//	g.SetEntryPoint("solve")
//	app, err := g.Compile()
type StateGraph[S any] struct {
	nodes            map[string]Node[S]
	order            []string
	edges            []Edge
	conditionalEdges map[string]ConditionalEdge[S]
	entryPoint       string
	retryPolicy      *RetryPolicy
	stateMerger      StateMerger[S]
}

// NewStateGraph creates an empty graph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]ConditionalEdge[S]),
	}
}

// AddNode adds a node. Adding a name twice replaces the earlier function.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds an unconditional edge. Several edges leaving the same node
// fan out and the targets run in parallel in the next step.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge routes from a node to whatever route returns.
// The optional targets declare every possible destination; they are
// validated at compile time, enforced at run time and used when drawing.
func (g *StateGraph[S]) AddConditionalEdge(from string, route func(ctx context.Context, state S) string, targets ...string) {
	g.conditionalEdges[from] = ConditionalEdge[S]{
		From:    from,
		Route:   route,
		Targets: targets,
	}
}

// SetEntryPoint sets the first node of every run.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy applied to every node.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetStateMerger sets how results of parallel nodes are combined.
// Without a merger the result of the last declared node wins.
func (g *StateGraph[S]) SetStateMerger(merger StateMerger[S]) {
	g.stateMerger = merger
}

// Nodes returns the nodes in insertion order.
func (g *StateGraph[S]) Nodes() []Node[S] {
	out := make([]Node[S], 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Compile validates the graph and returns a runnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if !g.known(e.From) || !g.known(e.To) {
			return nil, fmt.Errorf("%w: edge %s -> %s", ErrNodeNotFound, e.From, e.To)
		}
	}
	for from, ce := range g.conditionalEdges {
		if !g.known(from) {
			return nil, fmt.Errorf("%w: conditional edge from %s", ErrNodeNotFound, from)
		}
		for _, to := range ce.Targets {
			if !g.known(to) {
				return nil, fmt.Errorf("%w: conditional edge %s -> %s", ErrNodeNotFound, from, to)
			}
		}
	}
	return &StateRunnable[S]{graph: g}, nil
}

func (g *StateGraph[S]) known(name string) bool {
	if name == END {
		return true
	}
	_, ok := g.nodes[name]
	return ok
}

// StateRunnable is a compiled StateGraph.
type StateRunnable[S any] struct {
	graph     *StateGraph[S]
	listeners []NodeListener[S]
}

// Graph returns the graph the runnable was compiled from.
func (r *StateRunnable[S]) Graph() *StateGraph[S] {
	return r.graph
}

// WithListeners returns a copy of the runnable that also notifies ls.
func (r *StateRunnable[S]) WithListeners(ls ...NodeListener[S]) *StateRunnable[S] {
	listeners := make([]NodeListener[S], 0, len(r.listeners)+len(ls))
	listeners = append(listeners, r.listeners...)
	listeners = append(listeners, ls...)
	return &StateRunnable[S]{graph: r.graph, listeners: listeners}
}

// Invoke runs the graph from its entry point until END.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig runs the graph with interrupts, resumption and step limits.
// On error the last merged state is returned with it. An interrupted run
// returns a *GraphInterrupt whose NextNodes continue it.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	state := initialState
	current := []string{r.graph.entryPoint}
	resuming := false

	if config != nil {
		if config.ThreadID != "" {
			ctx = WithThreadID(ctx, config.ThreadID)
		}
		if len(config.ResumeFrom) > 0 {
			current = slices.Clone(config.ResumeFrom)
			resuming = true
		}
	}

	maxSteps := config.maxSteps()
	for step := 1; ; step++ {
		current = Pending(current)
		if len(current) == 0 {
			return state, nil
		}
		if step > maxSteps {
			return state, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, maxSteps)
		}

		stepCtx := ctx
		firstResumed := resuming && step == 1
		if firstResumed && config.ResumeValue != nil {
			// The resume value answers the pending Interrupt only.
			stepCtx = WithResumeValue(ctx, config.ResumeValue)
		}

		if config != nil && !firstResumed {
			for _, n := range current {
				if slices.Contains(config.InterruptBefore, n) {
					return state, &GraphInterrupt{Node: n, State: state, NextNodes: slices.Clone(current)}
				}
			}
		}

		results, err := r.runStep(stepCtx, step, current, state)
		if err != nil {
			var ni *NodeInterrupt
			if errors.As(err, &ni) {
				return state, &GraphInterrupt{
					Node:           ni.Node,
					State:          state,
					NextNodes:      []string{ni.Node},
					InterruptValue: ni.Value,
				}
			}
			return state, err
		}

		state, err = r.merge(ctx, state, results)
		if err != nil {
			return state, err
		}

		next, err := r.nextNodes(ctx, current, state)
		if err != nil {
			return state, err
		}

		r.emit(ctx, NodeEvent[S]{
			Type:      EventStepComplete,
			Node:      strings.Join(current, ","),
			Step:      step,
			State:     state,
			NextNodes: next,
			Timestamp: time.Now(),
		})

		if config != nil {
			for _, n := range current {
				if slices.Contains(config.InterruptAfter, n) {
					return state, &GraphInterrupt{Node: n, State: state, NextNodes: slices.Clone(next)}
				}
			}
		}
		current = next
	}
}

// Pending returns the nodes other than END in a new slice.
func Pending(nodes []string) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n != END {
			out = append(out, n)
		}
	}
	return out
}

// runStep executes the active nodes, concurrently when there is more than one.
func (r *StateRunnable[S]) runStep(ctx context.Context, step int, names []string, state S) ([]S, error) {
	nodes := make([]Node[S], len(names))
	for i, name := range names {
		n, ok := r.graph.nodes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
		}
		nodes[i] = n
	}

	results := make([]S, len(nodes))
	errs := make([]error, len(nodes))

	if len(nodes) == 1 {
		results[0], errs[0] = r.runNode(ctx, step, nodes[0], state)
	} else {
		var wg sync.WaitGroup
		for i, n := range nodes {
			SafeGo(&wg, func() {
				results[i], errs[i] = r.runNode(ctx, step, n, state)
			}, func(p any) {
				errs[i] = fmt.Errorf("panic in node %s: %v", n.Name, p)
			})
		}
		wg.Wait()
	}

	// A pending interrupt takes precedence over ordinary failures.
	for _, err := range errs {
		var ni *NodeInterrupt
		if errors.As(err, &ni) {
			return nil, ni
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (r *StateRunnable[S]) runNode(ctx context.Context, step int, node Node[S], state S) (S, error) {
	start := time.Now()
	r.emit(ctx, NodeEvent[S]{Type: EventNodeStart, Node: node.Name, Step: step, State: state, Timestamp: start})

	result, err := r.executeWithRetry(ctx, node, state)
	elapsed := time.Since(start)

	if err != nil {
		var ni *NodeInterrupt
		if errors.As(err, &ni) {
			ni.Node = node.Name
			return result, ni
		}
		r.emit(ctx, NodeEvent[S]{Type: EventNodeError, Node: node.Name, Step: step, State: state, Err: err, Duration: elapsed, Timestamp: time.Now()})
		return result, fmt.Errorf("error in node %s: %w", node.Name, err)
	}

	r.emit(ctx, NodeEvent[S]{Type: EventNodeComplete, Node: node.Name, Step: step, State: result, Duration: elapsed, Timestamp: time.Now()})
	return result, nil
}

func (r *StateRunnable[S]) executeWithRetry(ctx context.Context, node Node[S], state S) (S, error) {
	policy := r.graph.retryPolicy
	attempts := 1
	if policy != nil && policy.MaxRetries > 0 {
		attempts += policy.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := callNode(ctx, node, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var ni *NodeInterrupt
		if errors.As(err, &ni) || attempt == attempts-1 || !policy.retryable(err) {
			break
		}

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			var zero S
			return zero, ctx.Err()
		}
	}
	var zero S
	return zero, lastErr
}

// callNode turns a panic inside a node function into an error.
func callNode[S any](ctx context.Context, node Node[S], state S) (result S, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in node %s: %v", node.Name, p)
		}
	}()
	return node.Function(ctx, state)
}

func (p *RetryPolicy) retryable(err error) bool {
	if p == nil {
		return false
	}
	if len(p.RetryableErrors) == 0 {
		return true
	}
	msg := err.Error()
	for _, pattern := range p.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (p *RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return base * time.Duration(1<<attempt)
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	default:
		return base
	}
}

func (r *StateRunnable[S]) merge(ctx context.Context, current S, results []S) (S, error) {
	switch {
	case len(results) == 0:
		return current, nil
	case len(results) == 1:
		return results[0], nil
	case r.graph.stateMerger != nil:
		merged, err := r.graph.stateMerger(ctx, current, results)
		if err != nil {
			return current, fmt.Errorf("state merge failed: %w", err)
		}
		return merged, nil
	default:
		return results[len(results)-1], nil
	}
}

// nextNodes resolves the following step. A conditional edge takes precedence
// over static edges leaving the same node.
func (r *StateRunnable[S]) nextNodes(ctx context.Context, current []string, state S) ([]string, error) {
	var next []string
	add := func(name string) {
		if !slices.Contains(next, name) {
			next = append(next, name)
		}
	}

	for _, name := range current {
		if ce, ok := r.graph.conditionalEdges[name]; ok {
			target := ce.Route(ctx, state)
			if target == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", name)
			}
			if len(ce.Targets) > 0 && !slices.Contains(ce.Targets, target) {
				return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidRoute, name, target)
			}
			if !r.graph.known(target) {
				return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, target)
			}
			add(target)
			continue
		}

		found := false
		for _, e := range r.graph.edges {
			if e.From == name {
				add(e.To)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	return next, nil
}

func (r *StateRunnable[S]) emit(ctx context.Context, event NodeEvent[S]) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event)
	}
}
