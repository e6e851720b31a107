package workflow

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
	"github.com/smallnest/agentcases/internal/render"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/memory"
)

// DefaultAuthor is the name of the user the editor works as.
const DefaultAuthor = "AI Editor"

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type OperationType string

const (
	OpCreate  OperationType = "create"
	OpEdit    OperationType = "edit"
	OpFormat  OperationType = "format"
	OpReview  OperationType = "review"
	OpApprove OperationType = "approve"
)

// EditOperation records one change made to a document.
type EditOperation struct {
	ID          string        `json:"operation_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Type        OperationType `json:"operation_type"`
	UserID      string        `json:"user_id"`
	Description string        `json:"description"`
}

func newOperation(typ OperationType, user User, description string) EditOperation {
	return EditOperation{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Type:        typ,
		UserID:      user.ID,
		Description: description,
	}
}

type Section struct {
	ID             string    `json:"section_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Order          int       `json:"order"`
	LastModified   time.Time `json:"last_modified"`
	LastModifiedBy string    `json:"last_modified_by,omitempty"`
}

// DocumentVersion is an immutable set of sections.
type DocumentVersion struct {
	ID            string    `json:"version_id"`
	Number        int       `json:"version_number"`
	Timestamp     time.Time `json:"timestamp"`
	Sections      []Section `json:"sections"`
	CommitMessage string    `json:"commit_message"`
}

// Sorted returns the sections ordered by Order.
func (v DocumentVersion) Sorted() []Section {
	out := slices.Clone(v.Sections)
	slices.SortStableFunc(out, func(a, b Section) int { return cmp.Compare(a.Order, b.Order) })
	return out
}

type DocStatus string

const (
	DocDraft     DocStatus = "draft"
	DocReview    DocStatus = "review"
	DocApproved  DocStatus = "approved"
	DocPublished DocStatus = "published"
)

// Document is a versioned document with its edit history. Steps of the
// editor never modify the slices of a Document in place.
type Document struct {
	ID             string            `json:"document_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	CurrentVersion int               `json:"current_version"`
	Versions       []DocumentVersion `json:"versions"`
	History        []EditOperation   `json:"edit_history"`
	ActiveUsers    []User            `json:"active_users"`
	CreatedAt      time.Time         `json:"created_at"`
	Status         DocStatus         `json:"status"`
}

// Current returns the version numbered CurrentVersion.
func (d Document) Current() (DocumentVersion, bool) {
	for _, v := range d.Versions {
		if v.Number == d.CurrentVersion {
			return v, true
		}
	}
	return DocumentVersion{}, false
}

func (d Document) record(op EditOperation) Document {
	d.History = slices.Concat(d.History, []EditOperation{op})
	return d
}

// Snapshot summarises a document for display.
type Snapshot struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   int       `json:"version"`
	Versions  int       `json:"versions"`
	Status    DocStatus `json:"status"`
	Sections  int       `json:"sections"`
	WordCount int       `json:"word_count"`
	Edits     int       `json:"edits"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot counts words of the current version with Unicode word
// segmentation.
func (d Document) Snapshot() Snapshot {
	s := Snapshot{
		ID:        d.ID,
		Title:     d.Title,
		Version:   d.CurrentVersion,
		Versions:  len(d.Versions),
		Status:    d.Status,
		Edits:     len(d.History),
		CreatedAt: d.CreatedAt,
	}
	if v, ok := d.Current(); ok {
		s.Sections = len(v.Sections)
		for _, sec := range v.Sections {
			s.WordCount += memory.CountTokens(sec.Content)
		}
	}
	return s
}

// Markdown renders the current version.
func (d Document) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	if v, ok := d.Current(); ok {
		for _, sec := range v.Sorted() {
			fmt.Fprintf(&sb, "## %s\n\n%s\n\n", sec.Title, strings.TrimSpace(sec.Content))
		}
	}
	return sb.String()
}

// WriteHTML exports the current version as an HTML page.
func (d Document) WriteHTML(path string) error {
	return render.WriteHTMLFile(path, d.Title, d.Markdown())
}

// EditorState is the state of the DocumentEditor pipeline.
type EditorState struct {
	Prompt    string         `json:"prompt"`
	Document  Document       `json:"document"`
	User      User           `json:"current_user"`
	Operation *EditOperation `json:"current_operation,omitempty"`
	Review    string         `json:"review,omitempty"`
	Messages  memory.Log     `json:"message_log"`
}

// DocumentEditor drafts, formats, reviews and approves a document, keeping
// every version and edit.
type DocumentEditor struct {
	model llms.Model
	opts  options
}

func NewDocumentEditor(model llms.Model, opts ...Option) *DocumentEditor {
	return &DocumentEditor{model: model, opts: newOptions(opts)}
}

// Graph returns initialize -> generate_content -> format -> review -> finalize.
func (e *DocumentEditor) Graph() *graph.StateGraph[EditorState] {
	g := graph.NewStateGraph[EditorState]()
	g.AddNode("initialize", "Create an empty document", e.initialize)
	g.AddNode("generate_content", "Generate the document sections", e.generate)
	g.AddNode("format", "Format every section into a new version", e.format)
	g.AddNode("review", "Review the current version", e.review)
	g.AddNode("finalize", "Approve the document", finalizeDocument)
	g.AddEdge("initialize", "generate_content")
	g.AddEdge("generate_content", "format")
	g.AddEdge("format", "review")
	g.AddEdge("review", "finalize")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("initialize")
	return g
}

func (e *DocumentEditor) Run(ctx context.Context, prompt string) (EditorState, error) {
	return invoke(ctx, e.Graph(), e.opts, EditorState{Prompt: prompt})
}

func (e *DocumentEditor) initialize(_ context.Context, s EditorState) (EditorState, error) {
	user := User{ID: uuid.NewString(), Name: e.opts.author, Role: "author"}
	now := time.Now()
	s.User = user
	s.Document = Document{
		ID:             uuid.NewString(),
		Title:          "Document based on: " + truncate(s.Prompt, 50) + "...",
		Description:    s.Prompt,
		CurrentVersion: 1,
		Versions: []DocumentVersion{{
			ID:            uuid.NewString(),
			Number:        1,
			Timestamp:     now,
			CommitMessage: "Initial document creation",
		}},
		ActiveUsers: []User{user},
		CreatedAt:   now,
		Status:      DocDraft,
	}
	s.Messages = memory.Log{}.Append("System",
		fmt.Sprintf("Document initialized with prompt: '%s...'", truncate(s.Prompt, 50)))
	return s, nil
}

type sectionData struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// parseSections reads a JSON array of sections (bare or under "sections"),
// else splits text on "#" and "Section" headings. It returns nil when
// neither finds a section.
func parseSections(text string) []sectionData {
	if many, ok := structured.ParseJSON[[]sectionData](text, nil); ok && len(many) > 0 {
		return many
	}
	if wrapped, ok := structured.ParseJSON(text, struct {
		Sections []sectionData `json:"sections"`
	}{}); ok && len(wrapped.Sections) > 0 {
		return wrapped.Sections
	}

	var (
		out     []sectionData
		title   string
		content []string
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "Section") {
			if title != "" {
				out = append(out, sectionData{Title: title, Content: strings.Join(content, "\n"), Order: len(out) + 1})
				content = nil
			}
			title = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		if title != "" {
			content = append(content, line)
		}
	}
	if title != "" && len(content) > 0 {
		out = append(out, sectionData{Title: title, Content: strings.Join(content, "\n"), Order: len(out) + 1})
	}
	return out
}

func (e *DocumentEditor) generate(ctx context.Context, s EditorState) (EditorState, error) {
	op := newOperation(OpCreate, s.User, "Generate initial document content")
	out, err := askAs(ctx, e.model,
		"You are a document creation assistant. Generate a well-structured document "+
			"with multiple sections based on the given prompt. Create a JSON structure with "+
			"an array of sections, each with 'title', 'content', and 'order'.",
		fmt.Sprintf("Create a structured document for this prompt: '%s'. Include 3-5 well-organized sections.", s.Prompt))
	if err != nil {
		return s, err
	}

	now := time.Now()
	data := parseSections(out)
	if len(data) == 0 {
		data = []sectionData{
			{Title: "Introduction", Content: "This document addresses the topic: " + s.Prompt, Order: 1},
			{Title: "Main Content", Content: truncate(out, 500), Order: 2},
			{Title: "Conclusion", Content: "Summary and next steps.", Order: 3},
		}
	}
	sections := make([]Section, len(data))
	for i, d := range data {
		sec := Section{
			ID:             uuid.NewString(),
			Title:          d.Title,
			Content:        d.Content,
			Order:          d.Order,
			LastModified:   now,
			LastModifiedBy: s.User.ID,
		}
		if sec.Title == "" {
			sec.Title = fmt.Sprintf("Section %d", i+1)
		}
		if sec.Content == "" {
			sec.Content = "No content provided"
		}
		if sec.Order == 0 {
			sec.Order = i + 1
		}
		sections[i] = sec
	}

	doc := s.Document
	doc.Versions = []DocumentVersion{{
		ID:            uuid.NewString(),
		Number:        1,
		Timestamp:     now,
		Sections:      sections,
		CommitMessage: "Initial content generation",
	}}
	doc.CurrentVersion = 1
	s.Document = doc.record(op)
	s.Operation = &op
	s.Messages = s.Messages.Append(s.User.Name, fmt.Sprintf("Generated initial content with %d sections", len(sections)))
	return s, nil
}

func (e *DocumentEditor) format(ctx context.Context, s EditorState) (EditorState, error) {
	current, ok := s.Document.Current()
	if !ok {
		s.Messages = s.Messages.Append("System", "Error: Could not find current document version")
		return s, nil
	}
	op := newOperation(OpFormat, s.User, "Format document for improved readability")

	formatted := make([]Section, 0, len(current.Sections))
	for _, sec := range current.Sections {
		out, err := askAs(ctx, e.model,
			"You are a document formatting expert. Improve the readability and structure of text "+
				"while preserving all information. Add proper formatting, bullet points where appropriate, "+
				"and ensure good paragraph structure.",
			fmt.Sprintf("Format this document section titled '%s':\n\n%s", sec.Title, sec.Content))
		if err != nil {
			return s, err
		}
		sec.Content = out
		sec.LastModified = time.Now()
		sec.LastModifiedBy = s.User.ID
		formatted = append(formatted, sec)
	}

	doc := s.Document
	next := doc.CurrentVersion + 1
	doc.Versions = slices.Concat(doc.Versions, []DocumentVersion{{
		ID:            uuid.NewString(),
		Number:        next,
		Timestamp:     time.Now(),
		Sections:      formatted,
		CommitMessage: "Formatted document for improved readability",
	}})
	doc.CurrentVersion = next
	s.Document = doc.record(op)
	s.Operation = &op
	s.Messages = s.Messages.Append(s.User.Name,
		fmt.Sprintf("Formatted %d sections for improved readability", len(formatted)))
	return s, nil
}

func (e *DocumentEditor) review(ctx context.Context, s EditorState) (EditorState, error) {
	current, ok := s.Document.Current()
	if !ok {
		s.Messages = s.Messages.Append("System", "Error: Could not find current document version for review")
		return s, nil
	}
	op := newOperation(OpReview, s.User, "Review document content and structure")

	parts := make([]string, 0, len(current.Sections))
	for _, sec := range current.Sorted() {
		parts = append(parts, fmt.Sprintf("# %s\n%s", sec.Title, sec.Content))
	}
	out, err := askAs(ctx, e.model,
		"You are a document review specialist. Review this document for clarity, "+
			"completeness, coherence, and overall quality. Provide specific feedback "+
			"with an overall rating from 1-10.",
		fmt.Sprintf("Review this document titled '%s':\n\n%s", s.Document.Title, strings.Join(parts, "\n\n")))
	if err != nil {
		return s, err
	}

	doc := s.Document
	doc.Status = DocReview
	s.Document = doc.record(op)
	s.Operation = &op
	s.Review = out
	s.Messages = s.Messages.Append("Reviewer",
		fmt.Sprintf("Completed document review. Feedback: %s...", truncate(out, 100)))
	return s, nil
}

func finalizeDocument(_ context.Context, s EditorState) (EditorState, error) {
	op := newOperation(OpApprove, s.User, "Finalize document for publication")
	doc := s.Document
	doc.Status = DocApproved
	s.Document = doc.record(op)
	s.Operation = &op
	s.Messages = s.Messages.Append("Publisher",
		fmt.Sprintf("Document approved and ready for publication. Final version: %d", doc.CurrentVersion))
	return s, nil
}
