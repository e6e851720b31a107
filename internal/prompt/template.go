// Package prompt holds the named prompt templates of the translation and
// code assistant commands.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// Template is a named prompt with Go template placeholders.
type Template struct {
	Name        string
	Temperature float64
	tmpl        prompts.PromptTemplate
}

// New parses text; variables lists every placeholder it uses.
func New(name string, temperature float64, text string, variables ...string) Template {
	return Template{
		Name:        name,
		Temperature: temperature,
		tmpl:        prompts.NewPromptTemplate(text, variables),
	}
}

// Render fills in the placeholders.
func (t Template) Render(values map[string]any) (string, error) {
	out, err := t.tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.Name, err)
	}
	return strings.TrimSpace(out), nil
}

// Run renders the template and sends it to model.
func (t Template) Run(ctx context.Context, model llms.Model, values map[string]any) (string, error) {
	text, err := t.Render(values)
	if err != nil {
		return "", err
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, model, text, llms.WithTemperature(t.Temperature))
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.Name, err)
	}
	return strings.TrimSpace(out), nil
}

// splitFields splits s on "|" into at most n trimmed fields.
func splitFields(s string, n int) []string {
	parts := strings.SplitN(s, "|", n)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
