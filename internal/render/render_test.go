package render

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Header("Calculator Agent")
	p.QA("What is 2 + 2?", "Result: 4")
	p.Error(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "=== Calculator Agent ===")
	assert.Contains(t, out, "Question: What is 2 + 2?")
	assert.Contains(t, out, "Answer: Result: 4")
	assert.Contains(t, out, Separator)
	assert.Contains(t, out, "Error: boom")
}

func TestPrinter_Wraps(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).WithWidth(20).Section("Summary", strings.Repeat("word ", 12))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n")[1:] {
		assert.LessOrEqual(t, len(strings.TrimSpace(line)), 20)
	}
}

func TestMarkdownToHTML_Sanitises(t *testing.T) {
	out := string(MarkdownToHTML("# Report\n\nSee [docs](https://example.com).\n\n<script>alert(1)</script>"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Report")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "<script>")
}

func TestWriteHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTMLFile(path, "Q3 <Report>", "**bold**"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Q3 &lt;Report&gt;</title>")
	assert.Contains(t, string(data), "<strong>bold</strong>")
}
