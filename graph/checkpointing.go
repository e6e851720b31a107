package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/smallnest/agentcases/log"
	"github.com/smallnest/agentcases/store"
)

// CheckpointListener saves the merged state after every step of a run.
type CheckpointListener[S any] struct {
	store    store.CheckpointStore
	threadID string

	mu      sync.Mutex
	version int
	err     error
}

// NewCheckpointListener continues the version sequence of threadID.
func NewCheckpointListener[S any](ctx context.Context, st store.CheckpointStore, threadID string) (*CheckpointListener[S], error) {
	if threadID == "" {
		return nil, fmt.Errorf("checkpointing requires a thread id")
	}
	cl := &CheckpointListener[S]{store: st, threadID: threadID}

	latest, err := store.Latest(ctx, st, threadID)
	switch {
	case err == nil:
		cl.version = latest.Version
	case !errors.Is(err, store.ErrCheckpointNotFound):
		return nil, err
	}
	return cl, nil
}

func (cl *CheckpointListener[S]) OnNodeEvent(ctx context.Context, event NodeEvent[S]) {
	if event.Type != EventStepComplete {
		return
	}

	data, err := sonic.Marshal(event.State)
	if err != nil {
		cl.setErr(fmt.Errorf("failed to encode state: %w", err))
		return
	}

	cl.mu.Lock()
	cl.version++
	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  cl.threadID,
		NodeName:  event.Node,
		State:     data,
		NextNodes: slices.Clone(event.NextNodes),
		Metadata:  map[string]any{"step": event.Step},
		Timestamp: time.Now(),
		Version:   cl.version,
	}
	cl.mu.Unlock()

	if err := cl.store.Save(ctx, cp); err != nil {
		log.Warn("checkpoint %s of thread %s not saved: %v", cp.ID, cl.threadID, err)
		cl.setErr(err)
	}
}

func (cl *CheckpointListener[S]) setErr(err error) {
	cl.mu.Lock()
	if cl.err == nil {
		cl.err = err
	}
	cl.mu.Unlock()
}

// Err returns the first save failure, if any.
func (cl *CheckpointListener[S]) Err() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.err
}

// Version returns the version of the last saved checkpoint.
func (cl *CheckpointListener[S]) Version() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.version
}

// Resume decodes the latest checkpoint of a thread. The returned nodes are
// meant for Config.ResumeFrom.
func Resume[S any](ctx context.Context, st store.CheckpointStore, threadID string) (S, []string, error) {
	var state S
	cp, err := store.Latest(ctx, st, threadID)
	if err != nil {
		return state, nil, fmt.Errorf("resume thread %s: %w", threadID, err)
	}
	if err := sonic.Unmarshal(cp.State, &state); err != nil {
		return state, nil, fmt.Errorf("resume thread %s: decode state: %w", threadID, err)
	}
	return state, cp.NextNodes, nil
}
