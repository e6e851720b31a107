// Package structured decodes JSON answers from language models.
//
// Models often wrap JSON in Markdown fences and sometimes return something
// that is not JSON at all. ParseJSON decodes the fenced body, or the whole
// text when there is no fence, and falls back to a caller-supplied default
// when that fails. JSON embedded in prose without a fence is not found.
package structured

import (
	"strings"

	"github.com/bytedance/sonic"
)

// ExtractJSON returns the body of the first ```json fence, or of the first
// plain ``` fence, or the trimmed text when there is no fence.
func ExtractJSON(text string) string {
	if body, ok := fenced(text, "```json"); ok {
		return body
	}
	if body, ok := fenced(text, "```"); ok {
		return body
	}
	return strings.TrimSpace(text)
}

func fenced(text, open string) (string, bool) {
	_, rest, found := strings.Cut(text, open)
	if !found {
		return "", false
	}
	body, _, _ := strings.Cut(rest, "```")
	return strings.TrimSpace(body), true
}

// ParseJSON decodes the JSON in text. On any failure fallback is returned
// unchanged and ok is false.
func ParseJSON[T any](text string, fallback T) (value T, ok bool) {
	body := ExtractJSON(text)
	if body == "" {
		return fallback, false
	}
	var v T
	if err := sonic.UnmarshalString(body, &v); err != nil {
		return fallback, false
	}
	return v, true
}

// Indent renders v as indented JSON for inclusion in prompts.
func Indent(v any) string {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
