package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGo struct {
	BaseURL    string
	MaxResults int
	Client     *http.Client
}

type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoBaseURL sets the endpoint, mainly for tests.
func WithDuckDuckGoBaseURL(baseURL string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.BaseURL = baseURL
	}
}

// WithDuckDuckGoMaxResults caps the number of results.
func WithDuckDuckGoMaxResults(n int) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if n > 0 {
			d.MaxResults = n
		}
	}
}

// WithDuckDuckGoClient sets the HTTP client.
func WithDuckDuckGoClient(c *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.Client = c
	}
}

// NewDuckDuckGo creates a DuckDuckGo searcher returning five results.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		BaseURL:    "https://html.duckduckgo.com/html/",
		MaxResults: 5,
		Client:     defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	reqURL := d.BaseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return parseDuckDuckGo(doc, d.MaxResults), nil
}

func parseDuckDuckGo(doc *goquery.Document, limit int) []SearchResult {
	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find(".result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:       title,
			URL:         resolveDuckDuckGoLink(href),
			Description: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return limit <= 0 || len(results) < limit
	})
	return results
}

// resolveDuckDuckGoLink unwraps "//duckduckgo.com/l/?uddg=<target>" redirects.
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
