// Package render formats command output for the terminal and exports
// reports as HTML.
package render

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/reflow/wordwrap"
)

// Separator is printed between answers.
var Separator = strings.Repeat("-", 50)

// Printer writes styled sections. Colours are only emitted when the writer
// is a terminal.
type Printer struct {
	w     io.Writer
	width int

	title lipgloss.Style
	label lipgloss.Style
	muted lipgloss.Style
	fail  lipgloss.Style
}

// NewPrinter wraps text at 100 columns.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		width: 100,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		label: r.NewStyle().Bold(true),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// WithWidth sets the wrap width; zero disables wrapping.
func (p *Printer) WithWidth(width int) *Printer {
	cp := *p
	cp.width = width
	return &cp
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) wrap(s string) string {
	if p.width <= 0 {
		return s
	}
	return wordwrap.String(s, p.width)
}

// Header prints "=== title ===".
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w, p.title.Render("=== "+title+" ==="))
}

// Section prints a labelled block.
func (p *Printer) Section(label, body string) {
	fmt.Fprintf(p.w, "\n%s\n%s\n", p.label.Render(label+":"), p.wrap(body))
}

// Field prints "label: value" on one line.
func (p *Printer) Field(label string, value any) {
	fmt.Fprintf(p.w, "%s %v\n", p.label.Render(label+":"), value)
}

// QA prints a question followed by its answer and a separator.
func (p *Printer) QA(question, answer string) {
	fmt.Fprintf(p.w, "\n%s %s\n", p.label.Render("Question:"), question)
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("Answer:"), p.wrap(answer))
	p.Rule()
}

// Rule prints Separator.
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, p.muted.Render(Separator))
}

// Error prints "Error: err".
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.fail.Render("Error: "+err.Error()))
}

// Println prints wrapped text.
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.w, p.wrap(text))
}

// Printf prints formatted text without wrapping.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// MarkdownToHTML renders Markdown and sanitises the result with the UGC policy.
func MarkdownToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	doc := parser.NewWithExtensions(extensions).Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WriteHTML writes md as a standalone HTML page.
func WriteHTML(w io.Writer, title, md string) error {
	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(MarkdownToHTML(md)), // #nosec G203 sanitised above
	})
}

// WriteHTMLFile writes md as an HTML page at path.
func WriteHTMLFile(path, title, md string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteHTML(f, title, md); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
