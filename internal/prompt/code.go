package prompt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/agentcases/tool"
)

var (
	GenerateCode = New("generate_code", 0.1, `
You are an expert software developer. Generate clean, efficient, and well-documented code based on the following requirements.

Requirements:
{{.requirements}}

Programming Language: {{.language}}
Additional Specifications: {{.specifications}}

Your code should follow best practices for {{.language}}, including proper error handling, documentation, and optimizations where appropriate.

Generate only the code without additional explanation:`, "requirements", "language", "specifications")

	ExplainCode = New("explain_code", 0.4, "\nYou are an expert programming tutor. Explain the following code in a clear, educational manner.\n"+
		"Break down the explanation by sections or line by line as appropriate.\n\n"+
		"```{{.language}}\n{{.code}}\n```\n\nDetailed explanation:", "code", "language")

	ImproveCode = New("improve_code", 0.4, "\nYou are a software optimization expert. Review the following code and suggest improvements\n"+
		"for better performance, readability, maintainability, or security.\n\n"+
		"```{{.language}}\n{{.code}}\n```\n\nImprovement suggestions:", "code", "language")

	TranslateCode = New("translate_code", 0.1, "\nYou are an expert polyglot programmer. Translate the following code from {{.source_language}} to {{.target_language}}.\n"+
		"Maintain the same functionality, but use idioms and best practices appropriate for {{.target_language}}.\n\n"+
		"Original {{.source_language}} code:\n```{{.source_language}}\n{{.code}}\n```\n\nTranslated {{.target_language}} code:",
		"code", "source_language", "target_language")

	DebugCode = New("debug_code", 0.1, "\nYou are an expert debugging specialist. Analyze the following code and identify potential bugs,\n"+
		"edge cases, or issues. Also suggest fixes for each issue you find.\n\n"+
		"```{{.language}}\n{{.code}}\n```\n\nIssues and fixes:", "code", "language")
)

var fencedCode = regexp.MustCompile("```(?:[\\w+#.-]+)?\\s*([\\s\\S]*?)\\s*```")

// ExtractCode returns the body of the first fenced block, or text trimmed.
func ExtractCode(text string) string {
	if m := fencedCode.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

func fence(language, code string) string {
	return fmt.Sprintf("```%s\n%s\n```", strings.ToLower(language), ExtractCode(code))
}

// CodeTask names a code assistant operation.
type CodeTask string

const (
	TaskGenerate  CodeTask = "generate"
	TaskExplain   CodeTask = "explain"
	TaskImprove   CodeTask = "improve"
	TaskTranslate CodeTask = "translate"
	TaskDebug     CodeTask = "debug"
)

// CodeTasks lists every task in display order.
var CodeTasks = []CodeTask{TaskGenerate, TaskExplain, TaskImprove, TaskTranslate, TaskDebug}

// Coder runs the code templates.
type Coder struct {
	Model llms.Model
}

// Generate writes code for requirements and returns it fenced.
func (c *Coder) Generate(ctx context.Context, requirements, language, specifications string) (string, error) {
	out, err := GenerateCode.Run(ctx, c.Model, map[string]any{
		"requirements":   requirements,
		"language":       language,
		"specifications": specifications,
	})
	if err != nil {
		return "", err
	}
	return fence(language, out), nil
}

// Explain explains code.
func (c *Coder) Explain(ctx context.Context, code, language string) (string, error) {
	return ExplainCode.Run(ctx, c.Model, map[string]any{"code": ExtractCode(code), "language": language})
}

// Improve suggests improvements.
func (c *Coder) Improve(ctx context.Context, code, language string) (string, error) {
	return ImproveCode.Run(ctx, c.Model, map[string]any{"code": ExtractCode(code), "language": language})
}

// Translate ports code to another language and returns it fenced.
func (c *Coder) Translate(ctx context.Context, code, source, target string) (string, error) {
	out, err := TranslateCode.Run(ctx, c.Model, map[string]any{
		"code":            ExtractCode(code),
		"source_language": source,
		"target_language": target,
	})
	if err != nil {
		return "", err
	}
	return fence(target, out), nil
}

// Debug lists issues and fixes.
func (c *Coder) Debug(ctx context.Context, code, language string) (string, error) {
	return DebugCode.Run(ctx, c.Model, map[string]any{"code": ExtractCode(code), "language": language})
}

// Do runs task. For TaskGenerate input is the requirements; target is only
// used by TaskTranslate.
func (c *Coder) Do(ctx context.Context, task CodeTask, input, language, target string) (string, error) {
	switch task {
	case TaskGenerate:
		return c.Generate(ctx, input, language, "")
	case TaskExplain:
		return c.Explain(ctx, input, language)
	case TaskImprove:
		return c.Improve(ctx, input, language)
	case TaskTranslate:
		if target == "" {
			return "", fmt.Errorf("translate needs a target language")
		}
		return c.Translate(ctx, input, language, target)
	case TaskDebug:
		return c.Debug(ctx, input, language)
	}
	return "", fmt.Errorf("unknown code task %q", task)
}

// Tools exposes the coder to an agent. Inputs are "|"-separated.
func (c *Coder) Tools() []tools.Tool {
	codeAndLanguage := func(run func(ctx context.Context, code, language string) (string, error)) func(context.Context, string) (string, error) {
		return func(ctx context.Context, input string) (string, error) {
			code, language, ok := cutLast(input)
			if !ok {
				return "Query must contain both code and language, separated by '|'", nil
			}
			return run(ctx, code, language)
		}
	}

	return []tools.Tool{
		tool.NewFunc("generate_code",
			"Generate code based on requirements. Input format: 'requirements|language|specifications'. The specifications part is optional.",
			func(ctx context.Context, input string) (string, error) {
				f := splitFields(input, 3)
				if len(f) < 2 {
					return "Query must contain at least requirements and language, separated by '|'", nil
				}
				spec := ""
				if len(f) == 3 {
					spec = f[2]
				}
				return c.Generate(ctx, f[0], f[1], spec)
			}),
		tool.NewFunc("explain_code", "Explain code line by line. Input format: 'code|language'.",
			codeAndLanguage(c.Explain)),
		tool.NewFunc("improve_code", "Suggest improvements for code. Input format: 'code|language'.",
			codeAndLanguage(c.Improve)),
		tool.NewFunc("translate_code",
			"Translate code from one programming language to another. Input format: 'code|source_language|target_language'.",
			func(ctx context.Context, input string) (string, error) {
				rest, target, ok := cutLast(input)
				if !ok {
					return "Query must contain code, source language, and target language, separated by '|'", nil
				}
				code, source, ok := cutLast(rest)
				if !ok {
					return "Query must contain code, source language, and target language, separated by '|'", nil
				}
				return c.Translate(ctx, code, source, target)
			}),
		tool.NewFunc("debug_code", "Debug code and identify potential issues and fixes. Input format: 'code|language'.",
			codeAndLanguage(c.Debug)),
	}
}

// cutLast splits at the last "|" so that code may itself contain pipes.
func cutLast(s string) (string, string, bool) {
	i := strings.LastIndex(s, "|")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}
