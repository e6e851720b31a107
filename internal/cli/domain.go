package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallnest/agentcases/internal/catalog"
	"github.com/smallnest/agentcases/internal/prompt"
	"github.com/smallnest/agentcases/internal/sales"
	"github.com/smallnest/agentcases/log"
)

var (
	salesQueries = []string{
		"Give me a summary of the dataset",
		"Analyze the Sales column",
		"What's the correlation between Sales and Customer_Satisfaction?",
		"Create a histogram for the Sales column",
		"Create a scatter plot showing Sales vs Units",
		"What's the average Customer_Satisfaction by Region?",
		"What trends do you see in the Sales data?",
	}
	shopQueries = []string{
		"Can you recommend a good pair of wireless headphones?",
		"I need a new laptop for video editing, my budget is around $1200",
		"Show me some camping equipment that's durable and lightweight",
		"Compare these products for me: 1005, 1020, 1035",
		"Why would product 1010 be good for someone who enjoys outdoor photography?",
	}
)

const (
	salesSystem = "You are a data analyst. Use the data tools to inspect the sales dataset before " +
		"answering. Charts are written to files; tell the user where they are."
	shopSystem = "You are a shopping assistant for an online store. Use the catalog tools to find, " +
		"recommend and compare products. Mention product IDs and prices."

	// CatalogSeed generates the same mock catalog on every machine.
	CatalogSeed = 42
)

func (a *App) dataPath(name string) string {
	return filepath.Join(a.deps.DataDir, name)
}

// SalesCmd runs the data analysis agent.
type SalesCmd struct {
	Question string `arg:"" optional:"" help:"Question; fixed examples run when omitted."`
	CSV      string `name:"csv" type:"path" help:"Dataset to analyse; generated when the file does not exist."`
	Rows     int    `default:"100" help:"Rows generated for a new dataset."`
}

func (c *SalesCmd) Run(app *App) error {
	path := c.CSV
	if path == "" {
		path = app.dataPath("sales_data.csv")
	}
	table, err := sales.LoadOrGenerate(path, c.Rows)
	if err != nil {
		return err
	}
	log.Info("loaded %d rows from %s", table.Len(), path)

	analyst := &sales.Analyst{Table: table, OutDir: app.deps.DataDir}
	return runAgent(app, "Data Analysis Agent", salesSystem, analyst.Tools(), queries(c.Question, salesQueries))
}

// TranslateCmd translates text and explains the result.
type TranslateCmd struct {
	Text     string `arg:"" help:"Text to translate."`
	To       string `required:"" help:"Target language."`
	From     string `default:"auto" help:"Source language, or auto to detect it."`
	Formal   bool   `help:"Use formal language." xor:"register"`
	Informal bool   `help:"Use casual language." xor:"register"`
}

func (c *TranslateCmd) formality() prompt.Formality {
	switch {
	case c.Formal:
		return prompt.FormalityFormal
	case c.Informal:
		return prompt.FormalityInformal
	}
	return prompt.FormalityNone
}

func (c *TranslateCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	t := &prompt.Translator{Model: model}
	r, err := t.Report(app.Context(), c.Text, c.From, c.To, c.formality())
	if err != nil {
		return err
	}

	app.out.Header("Translation")
	app.out.Field("From", r.Source)
	app.out.Field("To", r.Target)
	app.out.Section("Original", r.Original)
	app.out.Section("Translation", r.Translation)
	app.out.Section("Cultural context", r.Context)
	app.out.Section("Alternatives", r.Alternatives)
	return app.report("Translation", r.Markdown())
}

// ShopCmd runs the product recommendation agent.
type ShopCmd struct {
	Query   string `arg:"" optional:"" help:"Request; fixed examples run when omitted."`
	Catalog string `type:"path" help:"Catalog JSON; generated when the file does not exist."`
}

func (c *ShopCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	path := c.Catalog
	if path == "" {
		path = app.dataPath("products.json")
	}
	cat, err := catalog.LoadOrGenerate(path, CatalogSeed)
	if err != nil {
		return err
	}
	log.Info("loaded %d products from %s", cat.Len(), path)

	assistant := &catalog.Assistant{Catalog: cat, Model: model}
	return runAgent(app, "Shopping Assistant", shopSystem, assistant.Tools(), queries(c.Query, shopQueries))
}

// CodeCmd runs one code assistant task.
type CodeCmd struct {
	Task     string `arg:"" enum:"generate,explain,improve,translate,debug" help:"Task: ${enum}."`
	Input    string `arg:"" help:"Requirements or code; a path to an existing file is read."`
	Language string `default:"go" help:"Language of the code."`
	Target   string `help:"Target language of translate."`
}

// input reads Input as a file when one exists at that path.
func (c *CodeCmd) input() string {
	if c.Task == string(prompt.TaskGenerate) {
		return c.Input
	}
	if data, err := os.ReadFile(c.Input); err == nil {
		return string(data)
	}
	return c.Input
}

func (c *CodeCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	coder := &prompt.Coder{Model: model}
	out, err := coder.Do(app.Context(), prompt.CodeTask(c.Task), c.input(), c.Language, c.Target)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Code %s (%s)", c.Task, c.Language)
	app.out.Header(title)
	app.out.Println(out)
	return app.report(title, out)
}
