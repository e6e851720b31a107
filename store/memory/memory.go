package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/agentcases/store"
)

// MemoryCheckpointStore keeps checkpoints in process memory.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
	}
}

func (m *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint id is required")
	}
	cp := checkpoint.Clone()
	m.mu.Lock()
	m.checkpoints[cp.ID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	return cp.Clone(), nil
}

func (m *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	var list []*store.Checkpoint
	for _, cp := range m.checkpoints {
		if cp.ThreadID == threadID {
			list = append(list, cp.Clone())
		}
	}
	m.mu.RUnlock()

	store.SortByVersion(list)
	return list, nil
}

func (m *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	m.mu.Lock()
	delete(m.checkpoints, checkpointID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cp := range m.checkpoints {
		if cp.ThreadID == threadID {
			delete(m.checkpoints, id)
		}
	}
	return nil
}
