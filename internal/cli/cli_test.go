package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/internal/config"
	"github.com/smallnest/agentcases/internal/llmtest"
	"github.com/smallnest/agentcases/rag"
	"github.com/smallnest/agentcases/tool"
)

type staticSearcher []tool.SearchResult

func (s staticSearcher) Search(context.Context, string) ([]tool.SearchResult, error) { return s, nil }

func testDeps(t *testing.T, model llms.Model) Deps {
	t.Helper()
	return Deps{
		LoadConfig: func(string) (*config.Config, error) { return config.New(), nil },
		Model:      func(*config.Config) (llms.Model, error) { return model, nil },
		Searcher: func(*config.Config) (tool.Searcher, error) {
			return staticSearcher{{Title: "Go", URL: "https://go.dev", Description: "The Go language"}}, nil
		},
		Embed:   rag.HashEmbedder{}.Func(),
		Clock:   func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		Rand:    tool.NewRand(1),
		DataDir: t.TempDir(),
	}
}

func run(t *testing.T, deps Deps, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, strings.NewReader(stdin), &stdout, &stderr, deps)
	return code, stdout.String(), stderr.String()
}

func TestRun_MissingArgument(t *testing.T) {
	for _, cmd := range []string{"breakdown", "validate", "parallel", "edit"} {
		t.Run(cmd, func(t *testing.T) {
			code, _, stderr := run(t, testDeps(t, llmtest.New()), "", cmd)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stderr, "Usage: agentcases "+cmd)
			assert.Contains(t, stderr, "<")
		})
	}
}

func TestRun_MissingArgumentAfterGlobalFlags(t *testing.T) {
	code, _, stderr := run(t, testDeps(t, llmtest.New()), "", "--log-level", "debug", "breakdown")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage: agentcases breakdown <problem>")
	assert.NotContains(t, stderr, "<command>")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := run(t, testDeps(t, llmtest.New()), "", "fly")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage: agentcases <command>")
}

func TestRun_TranslateNeedsTarget(t *testing.T) {
	code, _, stderr := run(t, testDeps(t, llmtest.New()), "", "translate", "hola")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "--to")
}

func TestRun_BadLogLevel(t *testing.T) {
	code, _, stderr := run(t, testDeps(t, llmtest.New()), "", "--log-level", "loud", "graph", "validate")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "loud")
}

func TestRun_MissingAPIKey(t *testing.T) {
	deps := testDeps(t, nil)
	deps.Model = nil

	code, stdout, _ := run(t, deps, "", "ask", "hello")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "Error: "+config.ErrMissingAPIKey.Error())
}

func TestRun_Ask(t *testing.T) {
	model := llmtest.New("  Hello back.  ")
	code, stdout, _ := run(t, testDeps(t, model), "", "ask", "hello")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "Hello back.\n", stdout)
	assert.Equal(t, []string{"hello"}, model.Prompts())
}

func TestRun_Calculator(t *testing.T) {
	model := llmtest.New().Script(
		llmtest.ToolCall("call-1", "calculator", "123 + 456"),
		llmtest.Text("The answer is 579."),
	)
	model.Respond = func(string) string { return "done" }

	code, stdout, _ := run(t, testDeps(t, model), "", "calculator")
	require.Equal(t, ExitOK, code)

	assert.Contains(t, stdout, "Testing Basic Calculator Agent")
	assert.Contains(t, stdout, "Question: What is 123 + 456?")
	assert.Contains(t, stdout, "Answer: The answer is 579.")
	assert.Equal(t, len(calculatorQueries), strings.Count(stdout, "Answer:"))

	toolReply := model.Calls()[1]
	last := toolReply[len(toolReply)-1]
	resp, ok := last.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "Result: 579", resp.Content)
}

func TestRun_FixedQueriesContinueAfterErrors(t *testing.T) {
	model := llmtest.New()
	model.Err = errors.New("rate limited")

	code, stdout, _ := run(t, testDeps(t, model), "", "weather")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, len(weatherQueries), strings.Count(stdout, "Error: "))
	assert.Contains(t, stdout, "Query: Is it raining in Tokyo right now?")
}

func TestRun_SingleQueryReplacesFixedOnes(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "ok" })
	code, stdout, _ := run(t, testDeps(t, model), "", "search", "Go releases")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, 1, strings.Count(stdout, "Answer: ok"))
	assert.Contains(t, stdout, "Question: Go releases")
}

func TestRun_ChatInteractive(t *testing.T) {
	model := llmtest.New("Nice to meet you, Alice.")
	code, stdout, _ := run(t, testDeps(t, model), "I am Alice\n\nexit\nignored\n", "chat", "--memory", "window")
	require.Equal(t, ExitOK, code)

	assert.Contains(t, stdout, "Type 'exit' to end the conversation")
	assert.Contains(t, stdout, "Assistant: Nice to meet you, Alice.")
	assert.Contains(t, stdout, "Goodbye!")
	assert.Len(t, model.Calls(), 1)
}

func TestRun_ChatScriptedRemembers(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "sure" })
	code, stdout, _ := run(t, testDeps(t, model), "", "chat", "--scripted")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, len(chatScript), strings.Count(stdout, "Answer: sure"))

	calls := model.Calls()
	require.Len(t, calls, len(chatScript))
	var history []string
	for _, m := range calls[len(calls)-1] {
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				history = append(history, text.Text)
			}
		}
	}
	assert.Contains(t, history, "Hi there! My name is Alice.")
}

func TestRun_DocQA(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "Revenue was $15.7 million." })
	deps := testDeps(t, model)

	code, stdout, _ := run(t, deps, "", "docqa", "What was the revenue?")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Revenue was $15.7 million.")
	assert.FileExists(t, filepath.Join(deps.DataDir, rag.SampleDocumentPath))
}

func TestDocQADefaultTopK(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("agentcases"))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"docqa"})
	require.NoError(t, err)
	assert.Equal(t, rag.DefaultTopK, cli.Docqa.TopK)
}

func TestRun_SalesGeneratesDataset(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "Sales grow steadily." })
	deps := testDeps(t, model)

	code, stdout, _ := run(t, deps, "", "sales", "What trends do you see?", "--rows", "20")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Sales grow steadily.")

	data, err := os.ReadFile(filepath.Join(deps.DataDir, "sales_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, 21, strings.Count(string(data), "\n"))
}

func TestRun_ShopGeneratesCatalog(t *testing.T) {
	model := llmtest.NewFunc(func(string) string { return "Try product 1005." })
	deps := testDeps(t, model)

	code, _, _ := run(t, deps, "", "shop", "headphones please")
	require.Equal(t, ExitOK, code)
	assert.FileExists(t, filepath.Join(deps.DataDir, "products.json"))
}

func TestRun_TranslateWritesHTML(t *testing.T) {
	model := llmtest.New("Hello", "Greeting used everywhere.", "Hi; Hey")
	deps := testDeps(t, model)
	out := filepath.Join(deps.DataDir, "translation.html")

	code, stdout, _ := run(t, deps, "", "--html", out, "translate", "Hola", "--from", "Spanish", "--to", "English", "--formal")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Hello")
	assert.Contains(t, model.Prompts()[0], "formal")

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Greeting used everywhere.")
}

func TestRun_Code(t *testing.T) {
	model := llmtest.New("It prints hello.")
	code, stdout, _ := run(t, testDeps(t, model), "", "code", "explain", `fmt.Println("hello")`)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Code explain (go)")
	assert.Contains(t, stdout, "It prints hello.")
	assert.Contains(t, model.Prompts()[0], `fmt.Println("hello")`)
}

func TestRun_Validate(t *testing.T) {
	model := llmtest.New("Short summary.")
	code, stdout, _ := run(t, testDeps(t, model), "", "validate", "A long enough text to summarize.")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Status: success")
	assert.Contains(t, stdout, "Short summary.")
}

func TestRun_ReviewReadsFeedbackFromStdin(t *testing.T) {
	model := llmtest.New(`["Intro"]`, "first draft", "second draft")
	code, stdout, _ := run(t, testDeps(t, model), "shorter please\napprove\n", "review", "Go generics")
	require.Equal(t, ExitOK, code)

	assert.Contains(t, stdout, "Draft (revision 0)")
	assert.Contains(t, stdout, "Draft (revision 1)")
	assert.Contains(t, stdout, "Revisions: 1")
	assert.Contains(t, stdout, "second draft")
	assert.Contains(t, model.Prompts()[2], "FEEDBACK: shorter please")
}

func TestRun_ReviewNeedsTopic(t *testing.T) {
	code, stdout, stderr := run(t, testDeps(t, llmtest.New()), "", "review")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stdout, ErrNoTopic.Error())
	assert.Contains(t, stderr, "Usage: agentcases review")
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("terminal closed") }

func TestRun_ReviewResumeAcrossRuns(t *testing.T) {
	model := llmtest.New(`["Intro"]`, "first draft")
	deps := testDeps(t, model)
	deps.LoadConfig = func(string) (*config.Config, error) {
		cfg := config.New()
		cfg.Store.Kind = "file"
		cfg.Store.Path = filepath.Join(deps.DataDir, "checkpoints")
		return cfg, nil
	}

	var stdout, stderr bytes.Buffer
	code := Run([]string{"review", "Go generics"}, brokenReader{}, &stdout, &stderr, deps)
	require.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout.String(), "terminal closed")
	thread := resumeThread(t, stdout.String())

	code, out, _ := run(t, deps, "approve\n", "review", "--resume", thread)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Thread: "+thread)
	assert.Contains(t, out, "Status: complete")
	assert.Contains(t, out, "first draft")
	assert.Len(t, model.Calls(), 2)
}

func resumeThread(t *testing.T, stdout string) string {
	t.Helper()
	for _, line := range strings.Split(stdout, "\n") {
		if _, id, ok := strings.Cut(line, "agentcases review --resume "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no thread in output:\n%s", stdout)
	return ""
}

func TestRun_EditWritesHTML(t *testing.T) {
	model := llmtest.New(`[{"title": "Intro", "content": "Hello"}]`, "Hello again", "Looks good 8/10")
	deps := testDeps(t, model)
	out := filepath.Join(deps.DataDir, "doc.html")

	code, stdout, _ := run(t, deps, "", "--html", out, "edit", "remote work", "--author", "Bob")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Version: 2 of 2")
	assert.Contains(t, stdout, "[Bob]")
	assert.FileExists(t, out)
}

func TestRun_Graph(t *testing.T) {
	deps := testDeps(t, llmtest.New())

	code, stdout, _ := run(t, deps, "", "graph", "validate")
	require.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "flowchart TD"), stdout)

	code, stdout, _ = run(t, deps, "", "graph", "review", "--format", "dot")
	require.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "digraph G {"), stdout)
	assert.Contains(t, stdout, "human_feedback")

	code, stdout, _ = run(t, deps, "", "graph", "list")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "parallel\n")

	code, stdout, _ = run(t, deps, "", "graph", "nope")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "unknown workflow")
}
