package graph

import (
	"context"
	"sync"
	"time"

	"github.com/smallnest/agentcases/log"
)

// EventType identifies what a NodeEvent reports.
type EventType string

const (
	EventNodeStart    EventType = "node_start"
	EventNodeComplete EventType = "node_complete"
	EventNodeError    EventType = "node_error"
	// EventStepComplete fires once per super-step after results are merged
	// and the next nodes are known.
	EventStepComplete EventType = "step_complete"
)

// NodeEvent is delivered to listeners during a run.
type NodeEvent[S any] struct {
	Type      EventType
	Node      string
	Step      int
	State     S
	NextNodes []string
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

// NodeListener observes a run. Node events of parallel nodes arrive from
// several goroutines, so implementations must be safe for concurrent use.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent[S])
}

// NodeListenerFunc adapts a function to NodeListener.
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent[S])

func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent[S]) {
	f(ctx, event)
}

// TimingListener records how long each node took.
type TimingListener[S any] struct {
	mu        sync.Mutex
	durations map[string][]time.Duration
}

// NewTimingListener creates an empty TimingListener.
func NewTimingListener[S any]() *TimingListener[S] {
	return &TimingListener[S]{durations: make(map[string][]time.Duration)}
}

func (t *TimingListener[S]) OnNodeEvent(_ context.Context, event NodeEvent[S]) {
	if event.Type != EventNodeComplete && event.Type != EventNodeError {
		return
	}
	t.mu.Lock()
	t.durations[event.Node] = append(t.durations[event.Node], event.Duration)
	t.mu.Unlock()
}

// Durations returns a copy of the recorded durations keyed by node.
func (t *TimingListener[S]) Durations() map[string][]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]time.Duration, len(t.durations))
	for k, v := range t.durations {
		out[k] = append([]time.Duration(nil), v...)
	}
	return out
}

// Total returns the summed duration of every execution of node.
func (t *TimingListener[S]) Total(node string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, d := range t.durations[node] {
		total += d
	}
	return total
}

// LoggingListener writes node transitions to a log.Logger.
type LoggingListener[S any] struct {
	Logger log.Logger
}

func (l LoggingListener[S]) OnNodeEvent(_ context.Context, event NodeEvent[S]) {
	logger := l.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	switch event.Type {
	case EventNodeStart:
		logger.Debug("step %d: node %s started", event.Step, event.Node)
	case EventNodeComplete:
		logger.Debug("step %d: node %s finished in %s", event.Step, event.Node, event.Duration)
	case EventNodeError:
		logger.Warn("step %d: node %s failed after %s: %v", event.Step, event.Node, event.Duration, event.Err)
	case EventStepComplete:
		logger.Debug("step %d complete, next %v", event.Step, event.NextNodes)
	}
}
