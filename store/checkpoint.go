package store

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sort"
	"time"
)

// ErrCheckpointNotFound is returned when a checkpoint ID or thread has no saved checkpoint.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is a snapshot of a pipeline's state taken after a node finished.
type Checkpoint struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	NodeName  string          `json:"node_name"`
	State     json.RawMessage `json:"state"`
	NextNodes []string        `json:"next_nodes,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// Clone returns a copy that shares no slices or maps with c.
func (c *Checkpoint) Clone() *Checkpoint {
	out := *c
	out.State = slices.Clone(c.State)
	out.NextNodes = slices.Clone(c.NextNodes)
	out.Metadata = maps.Clone(c.Metadata)
	return &out
}

// CheckpointStore persists checkpoints grouped by thread.
type CheckpointStore interface {
	// Save stores a checkpoint, replacing any checkpoint with the same ID.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns the checkpoints of a thread ordered by version.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints of a thread.
	Clear(ctx context.Context, threadID string) error
}

// Latest returns the highest-version checkpoint of a thread.
func Latest(ctx context.Context, s CheckpointStore, threadID string) (*Checkpoint, error) {
	list, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrCheckpointNotFound
	}
	return list[len(list)-1], nil
}

// SortByVersion orders checkpoints by version, then timestamp.
func SortByVersion(list []*Checkpoint) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Version != list[j].Version {
			return list[i].Version < list[j].Version
		}
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
}
