package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/agentcases/internal/llm"
	"github.com/smallnest/agentcases/log"
	"github.com/smallnest/agentcases/memory"
	"github.com/smallnest/agentcases/prebuilt"
	"github.com/smallnest/agentcases/rag"
	"github.com/smallnest/agentcases/tool"
)

var (
	calculatorQueries = []string{
		"What is 123 + 456?",
		"Calculate 17 * 38",
		"What's the square root of 144?",
		"Divide 1000 by 25",
	}
	weatherQueries = []string{
		"What's the current weather in New York?",
		"Give me the 5-day forecast for London",
		"Is it raining in Tokyo right now?",
		"What's the temperature in Sydney?",
	}
	searchQueries = []string{
		"Who won the most recent Nobel Prize in Literature?",
		"What were the major headlines yesterday?",
		"What is the current population of Tokyo?",
		"What are the latest developments in quantum computing?",
	}
	multitoolQueries = []string{
		"What is 568 * 1234?",
		"What time is it right now?",
		"What's the weather like in San Francisco?",
		"Who is the current CEO of Microsoft?",
		"Analyze these numbers: 12, 45, 67, 89, 23, 45, 78, 90",
		"What's the weather in Tokyo and what time is it there?",
	}
	chatScript = []string{
		"Hi there! My name is Alice.",
		"Can you tell me a joke about programming?",
		"That was funny! Now tell me a joke about animals.",
		"What was my name again?",
	}
	docqaQueries = []string{
		"What was the company's total revenue in 2023?",
		"What is the breakdown of revenue by product?",
		"What are the main risks mentioned in the report?",
		"What is the projected growth for the next year?",
	}
	reactQueries = []string{
		"What is 25 * 4 + 10?",
		"What time is it right now?",
	}
)

const (
	calculatorSystem = "You are a helpful assistant that solves math problems. " +
		"Use the calculator tool for arithmetic and report the result."
	weatherSystem = "You are a weather assistant. Use get_weather for current conditions " +
		"and get_forecast for forecasts. Answer with the numbers the tools return."
	searchSystem = "You are a research assistant. Use web_search to find current information " +
		"and summarized_search when a page needs to be read. Cite the sources you used."
	chatSystem = "You are a friendly assistant. Remember what the user tells you and use the " +
		"joke tool when asked for a joke."
)

// runAgent builds a ReAct agent and answers each query with it.
func runAgent(app *App, title, system string, ts []tools.Tool, qs []string) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	var opts []prebuilt.Option
	if system != "" {
		opts = append(opts, prebuilt.WithSystemPrompt(system))
	}
	agent, err := prebuilt.CreateReactAgent(model, ts, opts...)
	if err != nil {
		return err
	}
	app.each(title, qs, func(ctx context.Context, q string) (string, error) {
		state, err := agent.Invoke(ctx, prebuilt.NewAgentState(q))
		if err != nil {
			return "", err
		}
		for _, step := range prebuilt.Steps(state) {
			log.Debug("tool %s(%q) -> %q", step.Tool, step.Input, step.Output)
		}
		return prebuilt.FinalAnswer(state), nil
	})
	return nil
}

func (a *App) searcher() (tool.Searcher, error) {
	return a.deps.Searcher(a.cfg)
}

func (a *App) clock() *tool.CurrentTime {
	return &tool.CurrentTime{Now: a.deps.Clock}
}

// AskCmd sends one prompt.
type AskCmd struct {
	Prompt string `arg:"" help:"Prompt to send."`
}

func (c *AskCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	answer, err := llm.Complete(app.Context(), model, c.Prompt)
	if err != nil {
		return err
	}
	app.out.Println(answer)
	return nil
}

// ReactCmd runs the calculator, clock and search agent.
type ReactCmd struct {
	Query string `arg:"" optional:"" help:"Question; fixed examples run when omitted."`
}

func (c *ReactCmd) Run(app *App) error {
	s, err := app.searcher()
	if err != nil {
		return err
	}
	ts := []tools.Tool{&tool.Calculator{}, app.clock(), &tool.WebSearch{Searcher: s}}
	return runAgent(app, "ReAct Agent", "", ts, queries(c.Query, reactQueries))
}

// CalculatorCmd runs the restricted calculator agent.
type CalculatorCmd struct{}

func (c *CalculatorCmd) Run(app *App) error {
	ts := []tools.Tool{&tool.Calculator{AllowedChars: tool.BasicArithmetic}}
	return runAgent(app, "Testing Basic Calculator Agent", calculatorSystem, ts, calculatorQueries)
}

// WeatherCmd runs the weather agent.
type WeatherCmd struct {
	Query string `arg:"" optional:"" help:"Question; fixed examples run when omitted."`
}

func (c *WeatherCmd) Run(app *App) error {
	ts := []tools.Tool{
		&tool.Weather{Rand: app.deps.Rand, Now: app.deps.Clock},
		&tool.Forecast{Rand: app.deps.Rand, Now: app.deps.Clock},
	}
	return runAgent(app, "Testing Weather Agent", weatherSystem, ts, queries(c.Query, weatherQueries))
}

// SearchCmd runs the web search agent.
type SearchCmd struct {
	Query string `arg:"" optional:"" help:"Question; fixed examples run when omitted."`
}

func (c *SearchCmd) Run(app *App) error {
	s, err := app.searcher()
	if err != nil {
		return err
	}
	model, err := app.Model()
	if err != nil {
		return err
	}
	ts := []tools.Tool{&tool.WebSearch{Searcher: s}, tool.NewSummarizedSearch(s, model)}
	return runAgent(app, "Testing Web Search Agent", searchSystem, ts, queries(c.Query, searchQueries))
}

// MultitoolCmd runs the agent holding every general-purpose tool.
type MultitoolCmd struct{}

func (c *MultitoolCmd) Run(app *App) error {
	s, err := app.searcher()
	if err != nil {
		return err
	}
	ts := []tools.Tool{
		&tool.Calculator{},
		app.clock(),
		&tool.Weather{Rand: app.deps.Rand, Now: app.deps.Clock},
		&tool.WebSearch{Searcher: s},
		tool.DataAnalysis{},
	}
	return runAgent(app, "Testing Multi-Tool Agent", "", ts, multitoolQueries)
}

// ChatCmd holds a conversation.
type ChatCmd struct {
	Scripted bool   `help:"Play a fixed conversation instead of reading stdin."`
	Memory   string `default:"sequential" enum:"sequential,window,topic" help:"Memory strategy: ${enum}."`
	Window   int    `default:"10" help:"Messages kept by the window memory."`
	TopK     int    `name:"top-k" default:"5" help:"Messages recalled by the topic memory."`
}

func (c *ChatCmd) memory() memory.Memory {
	switch c.Memory {
	case "window":
		return memory.NewWindowMemory(c.Window)
	case "topic":
		return memory.NewTopicMemory(c.TopK)
	}
	return memory.NewSequentialMemory()
}

func (c *ChatCmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	ts := []tools.Tool{&tool.Joke{Rand: app.deps.Rand}, &tool.Weather{Rand: app.deps.Rand, Now: app.deps.Clock}}
	agent, err := prebuilt.NewConversationAgent(model, ts, c.memory(), prebuilt.WithSystemPrompt(chatSystem))
	if err != nil {
		return err
	}
	log.Info("chat session %s using %s memory", agent.ThreadID(), c.Memory)

	if c.Scripted {
		app.each("Conversation", chatScript, agent.Chat)
		return nil
	}

	app.out.Header("Conversation")
	app.out.Println("Type 'exit' to end the conversation")
	for {
		app.out.Printf("\nYou: ")
		line, err := app.in.ReadString('\n')
		text := strings.TrimSpace(line)
		if text != "" && !strings.EqualFold(text, "exit") {
			answer, cerr := agent.Chat(app.Context(), text)
			if cerr != nil {
				app.out.Error(cerr)
			} else {
				app.out.Println("Assistant: " + answer)
			}
		}
		if strings.EqualFold(text, "exit") || err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	app.out.Println("Goodbye!")
	return nil
}

// DocQACmd answers questions about a document.
type DocQACmd struct {
	Question string `arg:"" optional:"" help:"Question; fixed examples run when omitted."`
	Document string `type:"path" help:"Text document to index; a sample annual report is written when omitted."`
	Persist  string `type:"path" help:"Directory where the vector index is persisted."`
	TopK     int    `name:"top-k" default:"3" help:"Chunks retrieved per question."`
}

func (a *App) embedder() chromem.EmbeddingFunc {
	if a.deps.Embed != nil {
		return a.deps.Embed
	}
	if a.cfg.LLM.APIKey != "" {
		return rag.NewOpenAIEmbedder(a.cfg.LLM.APIKey, a.cfg.LLM.BaseURL, a.cfg.LLM.EmbeddingModel).Func()
	}
	log.Warn("no API key configured, using hash embeddings")
	return rag.HashEmbedder{}.Func()
}

func (c *DocQACmd) Run(app *App) error {
	model, err := app.Model()
	if err != nil {
		return err
	}
	path := c.Document
	if path == "" {
		if path, err = rag.WriteSampleDocument(app.deps.DataDir); err != nil {
			return err
		}
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	var opts []rag.StoreOption
	if c.Persist != "" {
		opts = append(opts, rag.WithPersistDir(c.Persist, true))
	}
	st, err := rag.NewVectorStore(app.embedder(), opts...)
	if err != nil {
		return err
	}
	qa := rag.NewDocumentQA(model, st, rag.WithTopK(c.TopK))
	if st.Count() == 0 {
		n, err := qa.Ingest(app.Context(), path, string(text))
		if err != nil {
			return err
		}
		log.Info("indexed %s into %d chunks", path, n)
	}

	app.each("Document Q&A", queries(c.Question, docqaQueries), func(ctx context.Context, q string) (string, error) {
		answer, err := qa.Ask(ctx, q)
		if err != nil {
			return "", err
		}
		return answer.String(), nil
	})
	return nil
}
