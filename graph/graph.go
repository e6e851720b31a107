package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// DefaultMaxSteps bounds the number of super-steps of a single run.
const DefaultMaxSteps = 100

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrInvalidRoute is returned when a conditional edge picks a target outside its declared set.
	ErrInvalidRoute = errors.New("conditional edge returned an undeclared target")

	// ErrMaxStepsExceeded is returned when a run does not reach END within Config.MaxSteps.
	ErrMaxStepsExceeded = errors.New("maximum number of steps exceeded")
)

// Edge represents an unconditional transition.
type Edge struct {
	From string
	To   string
}

// Node is a named state transition.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// ConditionalEdge routes to the node named by Route. Targets, when set,
// lists every name Route may return.
type ConditionalEdge[S any] struct {
	From    string
	Route   func(ctx context.Context, state S) string
	Targets []string
}

// StateMerger combines the results of nodes that ran in the same step.
type StateMerger[S any] func(ctx context.Context, current S, results []S) (S, error)

// BackoffStrategy defines different backoff strategies
type BackoffStrategy int

const (
	FixedBackoff BackoffStrategy = iota
	ExponentialBackoff
	LinearBackoff
)

// RetryPolicy defines how failed nodes are retried.
type RetryPolicy struct {
	MaxRetries      int
	BackoffStrategy BackoffStrategy
	// BaseDelay defaults to one second.
	BaseDelay time.Duration
	// RetryableErrors are substrings of retryable error messages. Empty means every error is retryable.
	RetryableErrors []string
}

// GraphInterrupt is returned when a run stops before completion, either by
// configuration or because a node called Interrupt.
type GraphInterrupt struct {
	// Node that caused the interruption
	Node string
	// State at the time of interruption
	State any
	// NextNodes to pass as Config.ResumeFrom to continue the run
	NextNodes []string
	// InterruptValue is the value given to Interrupt, if any
	InterruptValue any
}

func (e *GraphInterrupt) Error() string {
	if e.InterruptValue != nil {
		return fmt.Sprintf("graph interrupted at node %s with value: %v", e.Node, e.InterruptValue)
	}
	return fmt.Sprintf("graph interrupted at node %s", e.Node)
}

// Interrupt pauses execution and waits for input.
// When the run is resumed with Config.ResumeValue the value is returned instead.
func Interrupt(ctx context.Context, value any) (any, error) {
	if resumeVal := GetResumeValue(ctx); resumeVal != nil {
		return resumeVal, nil
	}
	return nil, &NodeInterrupt{Value: value}
}
