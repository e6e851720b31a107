package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/agentcases/store"
)

// FileCheckpointStore writes one JSON file per thread under a directory.
type FileCheckpointStore struct {
	dir string
	mu  sync.Mutex
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates the directory if needed.
func NewFileCheckpointStore(dir string) (*FileCheckpointStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{dir: dir}, nil
}

func (f *FileCheckpointStore) threadFile(threadID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(threadID)
	if name == "" {
		name = "_default"
	}
	return filepath.Join(f.dir, name+".json")
}

func (f *FileCheckpointStore) readThread(path string) ([]*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var list []*store.Checkpoint
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return list, nil
}

func (f *FileCheckpointStore) writeThread(path string, list []*store.Checkpoint) error {
	if len(list) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoints: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoints: %w", err)
	}
	return os.Rename(tmp, path)
}

func (f *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint id is required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.threadFile(checkpoint.ThreadID)
	list, err := f.readThread(path)
	if err != nil {
		return err
	}
	replaced := false
	for i, cp := range list {
		if cp.ID == checkpoint.ID {
			list[i] = checkpoint
			replaced = true
		}
	}
	if !replaced {
		list = append(list, checkpoint)
	}
	store.SortByVersion(list)
	return f.writeThread(path, list)
}

func (f *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		list, err := f.readThread(path)
		if err != nil {
			return nil, err
		}
		for _, cp := range list {
			if cp.ID == checkpointID {
				return cp, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
}

func (f *FileCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, err := f.readThread(f.threadFile(threadID))
	if err != nil {
		return nil, err
	}
	store.SortByVersion(list)
	return list, nil
}

func (f *FileCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	cp, err := f.Load(ctx, checkpointID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	path := f.threadFile(cp.ThreadID)
	list, err := f.readThread(path)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, c := range list {
		if c.ID != checkpointID {
			kept = append(kept, c)
		}
	}
	return f.writeThread(path, kept)
}

func (f *FileCheckpointStore) Clear(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.threadFile(threadID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear thread %s: %w", threadID, err)
	}
	return nil
}
