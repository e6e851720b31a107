package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smallnest/agentcases/internal/prompt"
	"github.com/smallnest/agentcases/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

var qaPrompt = prompt.New("document_qa", 0, `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}

Question: {{.question}}
Helpful Answer:`, "context", "question")

// Answer is the reply to a question together with the sources of the
// retrieved chunks.
type Answer struct {
	Text    string
	Sources []string
}

// String renders the answer followed by a numbered source list.
func (a Answer) String() string {
	if len(a.Sources) == 0 {
		return a.Text
	}
	var sb strings.Builder
	sb.WriteString(a.Text)
	sb.WriteString("\n\nSources:")
	for i, src := range a.Sources {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, src)
	}
	return sb.String()
}

// DocumentQA answers questions from ingested documents.
type DocumentQA struct {
	model    llms.Model
	store    *VectorStore
	splitter *RecursiveCharacterTextSplitter
	topK     int
}

// QAOption configures a DocumentQA.
type QAOption func(*DocumentQA)

// WithTopK sets the number of chunks retrieved per question.
func WithTopK(k int) QAOption {
	return func(q *DocumentQA) {
		if k > 0 {
			q.topK = k
		}
	}
}

// WithSplitter replaces the default splitter.
func WithSplitter(s *RecursiveCharacterTextSplitter) QAOption {
	return func(q *DocumentQA) {
		q.splitter = s
	}
}

// NewDocumentQA creates a question answerer over store.
func NewDocumentQA(model llms.Model, store *VectorStore, opts ...QAOption) *DocumentQA {
	q := &DocumentQA{
		model:    model,
		store:    store,
		splitter: NewRecursiveCharacterTextSplitter(),
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Ingest splits text and indexes the chunks under source. It returns the number of chunks.
func (q *DocumentQA) Ingest(ctx context.Context, source, text string) (int, error) {
	doc := Document{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String(),
		Content:  text,
		Metadata: map[string]string{MetadataSource: source},
	}
	chunks := q.splitter.SplitDocuments([]Document{doc})
	if err := q.store.AddDocuments(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", source, err)
	}
	log.Debug("indexed %d chunks from %s", len(chunks), source)
	return len(chunks), nil
}

// Ask retrieves the most relevant chunks and asks the model to answer from them.
func (q *DocumentQA) Ask(ctx context.Context, question string) (Answer, error) {
	hits, err := q.store.Search(ctx, question, q.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to search documents: %w", err)
	}

	parts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for i, h := range hits {
		parts = append(parts, h.Content)
		src := h.Source()
		if src == "" {
			src = fmt.Sprintf("Document %d", i+1)
		}
		sources = append(sources, src)
	}

	text, err := qaPrompt.Run(ctx, q.model, map[string]any{
		"context":  strings.Join(parts, "\n\n"),
		"question": question,
	})
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: sources}, nil
}

// Tool exposes Ask as a tool named "document_qa".
func (q *DocumentQA) Tool() tools.Tool {
	return qaTool{q}
}

type qaTool struct{ qa *DocumentQA }

func (qaTool) Name() string { return "document_qa" }

func (qaTool) Description() string {
	return "Useful for answering questions based on specific documents that have been loaded. " +
		"Input should be a clear question about the document content."
}

func (t qaTool) Call(ctx context.Context, input string) (string, error) {
	ans, err := t.qa.Ask(ctx, input)
	if err != nil {
		return "", err
	}
	return ans.String(), nil
}
