package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SearchResult is one hit of a web search.
type SearchResult struct {
	Title       string
	URL         string
	Description string
}

// Searcher is a web search backend.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// FormatResults renders results as a numbered list.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found"
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. Title: %s\nURL: %s\nDescription: %s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	return sb.String()
}

// WebSearch exposes a Searcher as a tool.
type WebSearch struct {
	Searcher Searcher
}

func (w *WebSearch) Name() string { return "web_search" }

func (w *WebSearch) Description() string {
	return "Useful for searching the web for specific or current information. Input should be a search query."
}

func (w *WebSearch) Call(ctx context.Context, input string) (string, error) {
	results, err := w.Searcher.Search(ctx, strings.TrimSpace(input))
	if err != nil {
		return "", err
	}
	return FormatResults(results), nil
}

// DefaultUserAgent is sent by the HTML search and page fetch clients.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
