package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/agentcases/tool"
)

var (
	DetectLanguage = New("detect_language", 0.1, `
You are a language detection expert. Analyze the following text and determine what language it's written in.
Respond with only the language name (e.g., "English", "Spanish", "Japanese", etc.).

Text: {{.text}}

Language:`, "text")

	Translate = New("translate", 0.1, `
You are an expert translator. Translate the following text from {{.source_language}} to {{.target_language}}.
Maintain the original meaning, tone, and nuance as accurately as possible.

{{.formality_instruction}}

Text to translate:
{{.text}}

Translation:`, "text", "source_language", "target_language", "formality_instruction")

	CulturalContext = New("cultural_context", 0.7, `
You are a cultural and linguistic expert. For the following text that has been translated from {{.source_language}} to {{.target_language}},
provide cultural context, explain any idioms, cultural references, or nuances that might be important for someone from a {{.target_language}}-speaking
background to understand.

Original text ({{.source_language}}):
{{.original_text}}

Translated text ({{.target_language}}):
{{.translated_text}}

Cultural context and explanations:`, "original_text", "translated_text", "source_language", "target_language")

	AlternativeExpressions = New("alternative_expressions", 0.7, `
You are a language expert. For the following translated text, provide 2-3 alternative ways to express the same meaning in {{.target_language}},
with different levels of formality or in different regional variants.

Translated text:
{{.translated_text}}

Alternative expressions in {{.target_language}}:`, "translated_text", "target_language")

	SummarizeTranslation = New("summarize_translation", 0.1, `
Summarize the following {{.target_language}} text in {{.target_language}}, capturing the key points while reducing the length by approximately 70%.

Text to summarize:
{{.text}}

Summary:`, "text", "target_language")
)

// Formality selects the register of a translation.
type Formality string

const (
	FormalityNone     Formality = ""
	FormalityFormal   Formality = "formal"
	FormalityInformal Formality = "informal"
)

// ParseFormality accepts "formal" and "informal"; anything else is FormalityNone.
func ParseFormality(s string) Formality {
	switch f := Formality(strings.ToLower(strings.TrimSpace(s))); f {
	case FormalityFormal, FormalityInformal:
		return f
	}
	return FormalityNone
}

func (f Formality) instruction() string {
	switch f {
	case FormalityFormal:
		return "Use formal language appropriate for professional or official contexts."
	case FormalityInformal:
		return "Use casual, conversational language appropriate for friends or informal situations."
	}
	return ""
}

// Translator runs the translation templates.
type Translator struct {
	Model llms.Model
}

// Detect returns the language name of text.
func (t *Translator) Detect(ctx context.Context, text string) (string, error) {
	return DetectLanguage.Run(ctx, t.Model, map[string]any{"text": text})
}

// Translate translates text; a source of "auto" or "" is detected first.
func (t *Translator) Translate(ctx context.Context, text, source, target string, formality Formality) (string, error) {
	if source == "" || strings.EqualFold(source, "auto") {
		detected, err := t.Detect(ctx, text)
		if err != nil {
			return "", err
		}
		source = detected
	}
	return Translate.Run(ctx, t.Model, map[string]any{
		"text":                  text,
		"source_language":       source,
		"target_language":       target,
		"formality_instruction": formality.instruction(),
	})
}

// CulturalContext explains idioms and references of a translation.
func (t *Translator) CulturalContext(ctx context.Context, original, translated, source, target string) (string, error) {
	return CulturalContext.Run(ctx, t.Model, map[string]any{
		"original_text":   original,
		"translated_text": translated,
		"source_language": source,
		"target_language": target,
	})
}

// Alternatives suggests other ways to phrase a translation.
func (t *Translator) Alternatives(ctx context.Context, translated, target string) (string, error) {
	return AlternativeExpressions.Run(ctx, t.Model, map[string]any{
		"translated_text": translated,
		"target_language": target,
	})
}

// Summarize shortens text written in language.
func (t *Translator) Summarize(ctx context.Context, text, language string) (string, error) {
	return SummarizeTranslation.Run(ctx, t.Model, map[string]any{"text": text, "target_language": language})
}

// Tools exposes the translator to an agent. Inputs are "|"-separated.
func (t *Translator) Tools() []tools.Tool {
	return []tools.Tool{
		tool.NewFunc("detect_language", "Detect the language of a text. Input is the text.",
			func(ctx context.Context, input string) (string, error) {
				return t.Detect(ctx, strings.TrimSpace(input))
			}),
		tool.NewFunc("translate_text",
			"Translate text. Input format: 'text|source language|target language|[formal/informal]'. Use 'auto' as source language to detect it.",
			func(ctx context.Context, input string) (string, error) {
				f := splitFields(input, 4)
				if len(f) < 3 {
					return "Translation error: use format 'text|source language|target language|[formal/informal]'", nil
				}
				formality := FormalityNone
				if len(f) == 4 {
					formality = ParseFormality(f[3])
				}
				return t.Translate(ctx, f[0], f[1], f[2], formality)
			}),
		tool.NewFunc("cultural_context",
			"Explain cultural context of a translation. Input format: 'original text|translated text|source language|target language'.",
			func(ctx context.Context, input string) (string, error) {
				f := splitFields(input, 4)
				if len(f) != 4 {
					return "Input must contain original text, translated text, source language, and target language, separated by '|'", nil
				}
				return t.CulturalContext(ctx, f[0], f[1], f[2], f[3])
			}),
		tool.NewFunc("alternative_expressions",
			"Suggest alternative phrasings. Input format: 'translated text|target language'.",
			func(ctx context.Context, input string) (string, error) {
				f := splitFields(input, 2)
				if len(f) != 2 {
					return "Input must contain translated text and target language, separated by '|'", nil
				}
				return t.Alternatives(ctx, f[0], f[1])
			}),
		tool.NewFunc("summarize_text",
			"Summarize a text in its language. Input format: 'text|language'.",
			func(ctx context.Context, input string) (string, error) {
				f := splitFields(input, 2)
				if len(f) != 2 {
					return "Input must contain text and language, separated by '|'", nil
				}
				return t.Summarize(ctx, f[0], f[1])
			}),
	}
}

// TranslationReport is the full output of the translate command.
type TranslationReport struct {
	Source       string
	Target       string
	Original     string
	Translation  string
	Context      string
	Alternatives string
}

// Markdown renders the report.
func (r TranslationReport) Markdown() string {
	return fmt.Sprintf("# Translation (%s → %s)\n\n## Original\n\n%s\n\n## Translation\n\n%s\n\n## Cultural context\n\n%s\n\n## Alternatives\n\n%s\n",
		r.Source, r.Target, r.Original, r.Translation, r.Context, r.Alternatives)
}

// Report detects, translates and explains text.
func (t *Translator) Report(ctx context.Context, text, source, target string, formality Formality) (TranslationReport, error) {
	r := TranslationReport{Source: source, Target: target, Original: text}
	if source == "" || strings.EqualFold(source, "auto") {
		detected, err := t.Detect(ctx, text)
		if err != nil {
			return r, err
		}
		r.Source = detected
	}

	var err error
	if r.Translation, err = t.Translate(ctx, text, r.Source, target, formality); err != nil {
		return r, err
	}
	if r.Context, err = t.CulturalContext(ctx, text, r.Translation, r.Source, target); err != nil {
		return r, err
	}
	if r.Alternatives, err = t.Alternatives(ctx, r.Translation, target); err != nil {
		return r, err
	}
	return r, nil
}
