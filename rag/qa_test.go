package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smallnest/agentcases/internal/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	h := HashEmbedder{Dimensions: 32}

	a, err := h.Embed(ctx, "Total revenue grew")
	require.NoError(t, err)
	b, err := h.Embed(ctx, "total REVENUE grew!")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	var norm float32
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-5)

	empty, err := h.Embed(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, float32(1), empty[0])
}

func TestVectorStoreSearch(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(HashEmbedder{}.Func())
	require.NoError(t, err)

	hits, err := store.Search(ctx, "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, store.AddDocuments(ctx, []Document{
		{ID: "1", Content: "cats purr and sleep", Metadata: map[string]string{MetadataSource: "cats.txt"}},
		{ID: "2", Content: "revenue and profit figures", Metadata: map[string]string{MetadataSource: "report.txt"}},
	}))
	assert.Equal(t, 2, store.Count())

	hits, err = store.Search(ctx, "what was the profit", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "report.txt", hits[0].Source())
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestVectorStorePersistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewVectorStore(HashEmbedder{}.Func(), WithPersistDir(dir, false), WithCollection("notes"))
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(ctx, []Document{{ID: "a", Content: "persist me"}}))

	reopened, err := NewVectorStore(HashEmbedder{}.Func(), WithPersistDir(dir, false), WithCollection("notes"))
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}

func TestDocumentQA(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(HashEmbedder{}.Func())
	require.NoError(t, err)

	model := llmtest.New("The total revenue was $15.2 million.")
	qa := NewDocumentQA(model, store)

	n, err := qa.Ingest(ctx, SampleDocumentPath, SampleDocument)
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	ans, err := qa.Ask(ctx, "What was the company's total revenue in 2023?")
	require.NoError(t, err)
	assert.Equal(t, "The total revenue was $15.2 million.", ans.Text)
	require.Len(t, ans.Sources, min(DefaultTopK, n))
	assert.Equal(t, SampleDocumentPath, ans.Sources[0])

	prompt := model.Prompts()[0]
	assert.Contains(t, prompt, "Question: What was the company's total revenue in 2023?")
	assert.Contains(t, prompt, "Helpful Answer:")

	out := ans.String()
	assert.True(t, strings.HasPrefix(out, "The total revenue was $15.2 million.\n\nSources:\n1. "+SampleDocumentPath))
}

func TestDocumentQATool(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(HashEmbedder{}.Func())
	require.NoError(t, err)

	qa := NewDocumentQA(llmtest.New("I don't know."), store, WithTopK(1))
	tool := qa.Tool()
	assert.Equal(t, "document_qa", tool.Name())

	out, err := tool.Call(ctx, "anything?")
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", out)
}

func TestAnswerString(t *testing.T) {
	ans := Answer{Text: "42", Sources: []string{"a.txt", "b.txt"}}
	assert.Equal(t, "42\n\nSources:\n1. a.txt\n2. b.txt", ans.String())
	assert.Equal(t, "42", Answer{Text: "42"}.String())
}

func TestWriteSampleDocument(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSampleDocument(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SampleDocumentPath), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SampleDocument, string(data))

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o644))
	_, err = WriteSampleDocument(dir)
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	assert.Equal(t, "custom", string(data))
}
