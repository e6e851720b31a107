package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

func TestDocumentEditor(t *testing.T) {
	model := llmtest.New(
		`[{"title": "Intro", "content": "Hello world here", "order": 1}, {"title": "Body", "content": "More text"}]`,
		"formatted one two",
		"formatted three",
		"Rating 8/10. Clear and concise.",
	)

	out, err := NewDocumentEditor(model).Run(context.Background(), "Guide to remote work")
	require.NoError(t, err)

	doc := out.Document
	assert.Equal(t, "Document based on: Guide to remote work...", doc.Title)
	assert.Equal(t, DocApproved, doc.Status)
	assert.Equal(t, 2, doc.CurrentVersion)
	require.Len(t, doc.Versions, 2)
	assert.Equal(t, DefaultAuthor, out.User.Name)

	v1 := doc.Versions[0]
	assert.Equal(t, "Hello world here", v1.Sections[0].Content)
	assert.Equal(t, 2, v1.Sections[1].Order)

	v2, ok := doc.Current()
	require.True(t, ok)
	assert.Equal(t, "formatted one two", v2.Sections[0].Content)
	assert.Equal(t, v1.Sections[0].ID, v2.Sections[0].ID)
	assert.Equal(t, "Formatted document for improved readability", v2.CommitMessage)

	var ops []OperationType
	for _, op := range doc.History {
		ops = append(ops, op.Type)
		assert.Equal(t, out.User.ID, op.UserID)
		assert.NotEmpty(t, op.ID)
	}
	assert.Equal(t, []OperationType{OpCreate, OpFormat, OpReview, OpApprove}, ops)

	var senders []string
	for _, m := range out.Messages.Entries() {
		senders = append(senders, m.Role)
	}
	assert.Equal(t, []string{"System", DefaultAuthor, DefaultAuthor, "Reviewer", "Publisher"}, senders)
	last, _ := out.Messages.Last()
	assert.Equal(t, "Document approved and ready for publication. Final version: 2", last.Content)
	assert.Equal(t, "Rating 8/10. Clear and concise.", out.Review)

	snap := doc.Snapshot()
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, 2, snap.Versions)
	assert.Equal(t, 2, snap.Sections)
	assert.Equal(t, 5, snap.WordCount)
	assert.Equal(t, 4, snap.Edits)

	reviewPrompt := model.Prompts()[3]
	assert.Contains(t, reviewPrompt, "# Intro\nformatted one two\n\n# Body\nformatted three")
}

func TestDocumentEditor_FallbackSections(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "just some prose" })

	out, err := NewDocumentEditor(model, WithAuthor("Alice")).Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Equal(t, "Alice", out.User.Name)
	v1 := out.Document.Versions[0]
	require.Len(t, v1.Sections, 3)
	assert.Equal(t, "Introduction", v1.Sections[0].Title)
	assert.Equal(t, "This document addresses the topic: topic", v1.Sections[0].Content)
	assert.Equal(t, "just some prose", v1.Sections[1].Content)
	assert.Equal(t, "Conclusion", v1.Sections[2].Title)
}

func TestParseSections(t *testing.T) {
	got := parseSections("# Intro\nhello\n## Body\nworld\nmore\nSection 3: End")
	require.Len(t, got, 2)
	assert.Equal(t, sectionData{Title: "Intro", Content: "hello", Order: 1}, got[0])
	assert.Equal(t, sectionData{Title: "Body", Content: "world\nmore", Order: 2}, got[1])

	wrapped := parseSections(`{"sections": [{"title": "A", "content": "a"}]}`)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "A", wrapped[0].Title)

	assert.Empty(t, parseSections("no headings"))
}

func TestDocument_Export(t *testing.T) {
	doc := Document{
		Title:          "Guide",
		CurrentVersion: 1,
		Versions: []DocumentVersion{{Number: 1, Sections: []Section{
			{Title: "Second", Content: "two", Order: 2},
			{Title: "First", Content: "one", Order: 1},
		}}},
	}
	assert.Equal(t, "# Guide\n\n## First\n\none\n\n## Second\n\ntwo\n\n", doc.Markdown())

	path := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, doc.WriteHTML(path))
	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Guide</title>")
	assert.Contains(t, string(html), "First</h2>")
}
