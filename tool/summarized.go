package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/log"
)

// maxPageChars bounds how much of a fetched page is sent to the model.
const maxPageChars = 6000

// SummarizedSearch searches, reads the top page and asks the model to
// answer the query from it.
type SummarizedSearch struct {
	Searcher Searcher
	Model    llms.Model
	Client   *http.Client
}

// NewSummarizedSearch creates the tool with the default HTTP client.
func NewSummarizedSearch(s Searcher, model llms.Model) *SummarizedSearch {
	return &SummarizedSearch{Searcher: s, Model: model, Client: defaultHTTPClient()}
}

func (s *SummarizedSearch) Name() string { return "summarized_search" }

func (s *SummarizedSearch) Description() string {
	return "Useful for getting summarized information from the web. Input should be a search query."
}

func (s *SummarizedSearch) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	results, err := s.Searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found", nil
	}

	source := FormatResults(results)
	page, err := s.fetchMarkdown(ctx, results[0].URL)
	if err != nil {
		log.Warn("summarized search: falling back to snippets, %s: %v", results[0].URL, err)
	} else {
		source = fmt.Sprintf("Content of %s:\n\n%s", results[0].URL, page)
	}

	prompt := fmt.Sprintf("Using only the material below, answer the query in a short summary of 3-5 sentences.\n\n"+
		"Query: %s\n\nMaterial:\n%s\n\nSummary:", query, source)
	summary, err := llms.GenerateFromSinglePrompt(ctx, s.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return fmt.Sprintf("%s\n\nSource: %s", strings.TrimSpace(summary), results[0].URL), nil
}

func (s *SummarizedSearch) fetchMarkdown(ctx context.Context, pageURL string) (string, error) {
	u, err := url.ParseRequestURI(pageURL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html")

	client := s.Client
	if client == nil {
		client = defaultHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(mainContent(doc), converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		return "", err
	}
	md = cleanMarkdown(md)
	if md == "" {
		return "", fmt.Errorf("page has no text")
	}
	if r := []rune(md); len(r) > maxPageChars {
		md = string(r[:maxPageChars]) + "..."
	}
	return md, nil
}

// mainContent drops page chrome and returns the most specific content container.
func mainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, form").Remove()
	for _, selector := range []string{"main", "article", "#content", ".content", "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if h, err := sel.Html(); err == nil && strings.TrimSpace(h) != "" {
				return h
			}
		}
	}
	h, _ := doc.Html()
	return h
}

var blankLines = regexp.MustCompile(`\n{3,}`)

func cleanMarkdown(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// NewSearcher picks a backend by provider name.
func NewSearcher(provider, braveKey, baseURL string, maxResults int) (Searcher, error) {
	switch strings.ToLower(provider) {
	case "", "duckduckgo":
		opts := []DuckDuckGoOption{WithDuckDuckGoMaxResults(maxResults)}
		if baseURL != "" {
			opts = append(opts, WithDuckDuckGoBaseURL(baseURL))
		}
		return NewDuckDuckGo(opts...), nil
	case "brave":
		opts := []BraveOption{WithBraveCount(maxResults)}
		if baseURL != "" {
			opts = append(opts, WithBraveBaseURL(baseURL))
		}
		return NewBraveSearch(braveKey, opts...)
	}
	return nil, fmt.Errorf("unknown search provider %q", provider)
}
