package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/smallnest/agentcases/workflow"
)

// page prints sections and collects them as Markdown for --html.
type page struct {
	app   *App
	title string
	md    strings.Builder
}

func (a *App) page(title string) *page {
	a.out.Header(title)
	p := &page{app: a, title: title}
	fmt.Fprintf(&p.md, "# %s\n\n", title)
	return p
}

func (p *page) field(label string, value any) {
	p.app.out.Field(label, value)
	fmt.Fprintf(&p.md, "**%s:** %v\n\n", label, value)
}

func (p *page) section(label, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	p.app.out.Section(label, body)
	fmt.Fprintf(&p.md, "## %s\n\n%s\n\n", label, body)
}

func (p *page) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	var sb strings.Builder
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, it)
	}
	p.section(label, strings.TrimSuffix(sb.String(), "\n"))
}

func (p *page) done() error {
	return p.app.report(p.title, p.md.String())
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(items, "\n- ")
}

// BreakdownCmd runs the breakdown pipeline.
type BreakdownCmd struct {
	Problem string `arg:"" help:"Problem to solve."`
}

func (c *BreakdownCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewBreakdown(model).Run(app.Context(), c.Problem)
	if err != nil {
		return err
	}
	p := app.page("Problem Breakdown")
	p.field("Problem", out.Problem)
	p.list("Steps", out.Steps)
	p.section("Solution", out.Solution)
	p.section("Final answer", out.FinalAnswer)
	return p.done()
}

// SolveCmd runs the complexity router.
type SolveCmd struct {
	Problem string `arg:"" help:"Problem to solve."`
}

func (c *SolveCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewComplexity(model).Run(app.Context(), c.Problem)
	if err != nil {
		return err
	}
	p := app.page("Complexity Routing")
	p.field("Problem", out.Problem)
	p.field("Complexity", out.Complexity)
	p.list("Steps", out.Steps)
	p.section("Solution", out.Solution)
	p.section("Final answer", out.FinalAnswer)
	return p.done()
}

// RefineCmd runs the refinement loop.
type RefineCmd struct {
	Problem string `arg:"" help:"Problem to solve."`
}

func (c *RefineCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewRefinement(model).Run(app.Context(), c.Problem)
	if err != nil {
		return err
	}
	p := app.page("Iterative Refinement")
	p.field("Problem", out.Problem)
	p.field("Iterations", out.Iteration)
	p.field("Quality score", fmt.Sprintf("%.1f/10", out.QualityScore))
	p.section("Assessment", out.QualityAssessment)
	p.list("Suggestions", out.Suggestions)
	p.section("Final solution", out.FinalSolution)
	return p.done()
}

// ResearchTeamCmd runs the four-role research pipeline.
type ResearchTeamCmd struct {
	Topic string `arg:"" help:"Research question."`
}

func (c *ResearchTeamCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewResearchTeam(model).Run(app.Context(), c.Topic)
	if err != nil {
		return err
	}
	p := app.page("Research Team")
	p.field("Query", out.Query)
	var findings strings.Builder
	for _, f := range out.Findings {
		fmt.Fprintf(&findings, "%s (%s)\n%s\n\n", f.Topic, f.Relevance, bullets(f.KeyPoints))
	}
	p.section("Findings", strings.TrimSpace(findings.String()))
	p.section("Main insights", bullets(out.Analysis.MainInsights))
	p.section("Knowledge gaps", bullets(out.Analysis.KnowledgeGaps))
	p.section("Weaknesses", bullets(out.Critique.Weaknesses))
	p.section("Synthesis", out.Synthesis)
	for _, m := range out.Messages.Entries() {
		app.out.Printf("[%s] %d characters\n", m.Role, len(m.Content))
	}
	return p.done()
}

// ToolUseCmd runs the tool planning pipeline.
type ToolUseCmd struct {
	Query string `arg:"" help:"Question for the tools."`
}

func (c *ToolUseCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewToolUse(model).Run(app.Context(), c.Query)
	if err != nil {
		return err
	}
	p := app.page("Tool Use")
	p.field("Query", out.Query)
	p.list("Thoughts", out.Thoughts)
	var results []string
	for _, r := range out.Results {
		results = append(results, fmt.Sprintf("%s(%v) [%s]: %s", r.Tool, r.Args, r.Status, r.Result))
	}
	p.list("Tool results", results)
	p.section("Final answer", out.FinalAnswer)
	return p.done()
}

// ValidateCmd runs the validating summarizer.
type ValidateCmd struct {
	Text string `arg:"" help:"Text to summarize."`
}

func (c *ValidateCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewValidation(model).Run(app.Context(), c.Text)
	if err != nil {
		return err
	}
	p := app.page("Validation")
	p.field("Status", out.Status)
	if out.Error != "" {
		p.field("Error", out.Error)
	}
	p.section("Result", out.Result)
	return p.done()
}

// ReviewCmd runs the human review pipeline with stdin as the reviewer.
type ReviewCmd struct {
	Topic        string `arg:"" optional:"" help:"What to write about; not needed with --resume."`
	Resume       string `help:"Thread ID of a paused review to continue."`
	MaxRevisions int    `name:"max-revisions" default:"5" help:"Revision rounds before the draft is approved."`
}

// ErrNoTopic is returned when review has neither a topic nor a thread.
var ErrNoTopic = fmt.Errorf("%w: review needs a topic or --resume", ErrUsage)

// reviewer shows each draft and reads the answer from stdin. End of input
// approves the draft.
func (a *App) reviewer() workflow.Reviewer {
	return func(_ context.Context, draft string, revision int) (string, error) {
		a.out.Section(fmt.Sprintf("Draft (revision %d)", revision), draft)
		a.out.Printf("\nFeedback (approve, reject, or what to change): ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *ReviewCmd) Run(app *App) error {
	if c.Topic == "" && c.Resume == "" {
		return ErrNoTopic
	}
	model, err := app.Model()
	if err != nil {
		return err
	}
	st, err := app.Store()
	if err != nil {
		return err
	}
	review := workflow.NewReview(model, workflow.WithCheckpointStore(st), workflow.WithMaxRevisions(c.MaxRevisions))

	var out workflow.ReviewState
	if c.Resume != "" {
		out, err = review.Resume(app.Context(), c.Resume, app.reviewer())
	} else {
		out, err = review.Run(app.Context(), c.Topic, app.reviewer())
	}
	if err != nil {
		if out.ThreadID != "" {
			app.out.Field("Resume with", "agentcases review --resume "+out.ThreadID)
		}
		return err
	}

	p := app.page("Human Review")
	p.field("Thread", out.ThreadID)
	p.field("Status", out.Status)
	p.field("Revisions", out.Revisions)
	p.list("Outline", out.Outline)
	p.section("Final content", out.FinalContent)
	return p.done()
}

// ParallelCmd runs parallel research.
type ParallelCmd struct {
	Question string `arg:"" help:"Research question."`
}

func (c *ParallelCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewParallelResearch(model).Run(app.Context(), c.Question)
	if err != nil {
		return err
	}
	p := app.page("Parallel Research")
	p.field("Query", out.Query)
	p.list("Sub-questions", out.SubQuestions)
	for _, q := range out.SubQuestions {
		r := out.Results[q]
		body := bullets(r.KeyPoints) + "\n\nSources:\n" + bullets(r.Sources)
		if r.Error != "" {
			body = "Error: " + r.Error
		}
		p.section(fmt.Sprintf("%s (%s)", q, r.Duration.Round(time.Millisecond)), body)
	}
	p.field("Total time", out.Stats.Total.Round(time.Millisecond))
	p.field("Average per question", out.Stats.Average.Round(time.Millisecond))
	p.field("Speedup", fmt.Sprintf("%.2fx", out.Stats.Speedup))
	p.section("Synthesis", out.Synthesis)
	return p.done()
}

// EditCmd runs the document editor.
type EditCmd struct {
	Topic  string `arg:"" help:"What the document is about."`
	Author string `default:"AI Editor" help:"Name recorded on every edit."`
}

func (c *EditCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	out, err := workflow.NewDocumentEditor(model, workflow.WithAuthor(c.Author)).Run(app.Context(), c.Topic)
	if err != nil {
		return err
	}
	doc := out.Document
	snap := doc.Snapshot()
	app.out.Header("Document Editor")
	app.out.Field("Title", snap.Title)
	app.out.Field("Status", snap.Status)
	app.out.Field("Version", fmt.Sprintf("%d of %d", snap.Version, snap.Versions))
	app.out.Field("Sections", snap.Sections)
	app.out.Field("Words", snap.WordCount)
	app.out.Field("Edits", snap.Edits)
	app.out.Section("Review", out.Review)
	app.out.Section("Document", doc.Markdown())
	for _, m := range out.Messages.Entries() {
		app.out.Printf("[%s] %s\n", m.Role, m.Content)
	}
	if app.globals.HTML == "" {
		return nil
	}
	if err := doc.WriteHTML(app.globals.HTML); err != nil {
		return err
	}
	app.out.Field("Report", app.globals.HTML)
	return nil
}

// GraphCmd draws a pipeline.
type GraphCmd struct {
	Workflow string `arg:"" help:"Pipeline to draw; see 'agentcases graph list'."`
	Format   string `default:"mermaid" enum:"mermaid,dot" help:"Output format: ${enum}."`
}

func (c *GraphCmd) Run(app *App) error {
	if c.Workflow == "list" {
		for _, name := range workflow.Names() {
			app.out.Println(name)
		}
		return nil
	}
	draw, ok := workflow.Registry[c.Workflow]
	if !ok {
		return fmt.Errorf("unknown workflow %q, choose one of: %s", c.Workflow, strings.Join(workflow.Names(), ", "))
	}
	d := draw(nil)
	if c.Format == "dot" {
		app.out.Printf("%s\n", d.DrawDOT())
	} else {
		app.out.Printf("%s\n", d.DrawMermaid())
	}
	return nil
}
