package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/agentcases/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkpoint(id, thread string, version int) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        id,
		ThreadID:  thread,
		NodeName:  "draft_content",
		State:     json.RawMessage(`{"topic":"go"}`),
		NextNodes: []string{"human_feedback"},
		Timestamp: time.Now(),
		Version:   version,
	}
}

func TestMemoryCheckpointStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryCheckpointStore()

	require.NoError(t, ms.Save(ctx, checkpoint("cp-1", "thread-1", 1)))

	loaded, err := ms.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "thread-1", loaded.ThreadID)
	assert.Equal(t, []string{"human_feedback"}, loaded.NextNodes)
	assert.JSONEq(t, `{"topic":"go"}`, string(loaded.State))

	_, err = ms.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	assert.Error(t, ms.Save(ctx, &store.Checkpoint{}))
}

func TestMemoryCheckpointStore_ListLatestClear(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryCheckpointStore()

	require.NoError(t, ms.Save(ctx, checkpoint("cp-3", "t", 3)))
	require.NoError(t, ms.Save(ctx, checkpoint("cp-1", "t", 1)))
	require.NoError(t, ms.Save(ctx, checkpoint("cp-2", "t", 2)))
	require.NoError(t, ms.Save(ctx, checkpoint("other", "u", 1)))

	list, err := ms.List(ctx, "t")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"cp-1", "cp-2", "cp-3"}, []string{list[0].ID, list[1].ID, list[2].ID})

	latest, err := store.Latest(ctx, ms, "t")
	require.NoError(t, err)
	assert.Equal(t, "cp-3", latest.ID)

	require.NoError(t, ms.Delete(ctx, "cp-3"))
	latest, err = store.Latest(ctx, ms, "t")
	require.NoError(t, err)
	assert.Equal(t, "cp-2", latest.ID)

	require.NoError(t, ms.Clear(ctx, "t"))
	_, err = store.Latest(ctx, ms, "t")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	list, err = ms.List(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryCheckpointStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryCheckpointStore()
	require.NoError(t, ms.Save(ctx, checkpoint("cp-1", "t", 1)))

	loaded, err := ms.Load(ctx, "cp-1")
	require.NoError(t, err)
	loaded.NodeName = "changed"

	again, err := ms.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "draft_content", again.NodeName)
}

func TestMemoryCheckpointStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryCheckpointStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ms.Save(ctx, checkpoint(fmt.Sprintf("cp-%d", i), "t", i))
		}(i)
	}
	wg.Wait()

	list, err := ms.List(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestMemoryCheckpointStore_CopiesSlices(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryCheckpointStore()

	cp := checkpoint("cp-1", "t", 1)
	cp.NextNodes = []string{"END"}
	cp.Metadata = map[string]any{"step": 1}
	require.NoError(t, ms.Save(ctx, cp))

	cp.NextNodes[0] = ""
	cp.Metadata["step"] = 9

	latest, err := store.Latest(ctx, ms, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"END"}, latest.NextNodes)
	assert.Equal(t, 1, latest.Metadata["step"])

	latest.NextNodes[0] = "changed"
	again, err := ms.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"END"}, again.NextNodes)
}
