package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentcases/internal/llmtest"
)

const ddgPage = `<html><body>
<div class="result results_links result--ad"><a class="result__a" href="https://ads.example.com">Ad</a></div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&rut=x">Documentation - The Go Programming Language</a></h2>
  <a class="result__snippet">The Go programming language is an open source project.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://pkg.go.dev/">Go Packages</a></h2>
  <a class="result__snippet">Discover packages.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://go.dev/blog/">Blog</a></h2>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, ddgPage)
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoBaseURL(server.URL), WithDuckDuckGoMaxResults(2))
	results, err := ddg.Search(context.Background(), "golang docs")
	require.NoError(t, err)

	assert.Equal(t, "golang docs", gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, "https://go.dev/doc/", results[0].URL)
	assert.Equal(t, "Documentation - The Go Programming Language", results[0].Title)
	assert.Equal(t, "The Go programming language is an open source project.", results[0].Description)
	assert.Equal(t, "https://pkg.go.dev/", results[1].URL)
}

func TestDuckDuckGo_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewDuckDuckGo(WithDuckDuckGoBaseURL(server.URL)).Search(context.Background(), "x")
	assert.ErrorContains(t, err, "status: 429")

	_, err = NewDuckDuckGo().Search(context.Background(), "")
	assert.Error(t, err)
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web":{"results":[{"title":"Tokyo","url":"https://example.com/tokyo","description":"Population 14 million"}]}}`)
	}))
	defer server.Close()

	_, err := NewBraveSearch("")
	assert.Error(t, err)

	b, err := NewBraveSearch("key", WithBraveBaseURL(server.URL), WithBraveCount(3))
	require.NoError(t, err)

	out, err := (&WebSearch{Searcher: b}).Call(context.Background(), "population of tokyo")
	require.NoError(t, err)
	assert.Equal(t, "1. Title: Tokyo\nURL: https://example.com/tokyo\nDescription: Population 14 million\n\n", out)
}

func TestBraveCountClamped(t *testing.T) {
	b, err := NewBraveSearch("key", WithBraveCount(100))
	require.NoError(t, err)
	assert.Equal(t, 20, b.Count)
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "No results found", FormatResults(nil))
}

type staticSearcher []SearchResult

func (s staticSearcher) Search(context.Context, string) ([]SearchResult, error) { return s, nil }

func TestSummarizedSearch(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script>var x=1;</script></head><body>
<nav>Menu</nav><main><h1>Quantum news</h1><p>A <a href="/paper">new paper</a> reports 1000 qubits.</p></main>
<footer>Copyright</footer></body></html>`)
	}))
	defer page.Close()

	model := llmtest.New("Researchers reported a 1000-qubit processor.")
	s := NewSummarizedSearch(staticSearcher{{Title: "Quantum", URL: page.URL + "/news", Description: "snippet"}}, model)

	out, err := s.Call(context.Background(), "quantum computing news")
	require.NoError(t, err)
	assert.Equal(t, "Researchers reported a 1000-qubit processor.\n\nSource: "+page.URL+"/news", out)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "# Quantum news")
	assert.Contains(t, prompts[0], "("+page.URL+"/paper)")
	assert.NotContains(t, prompts[0], "Menu")
	assert.NotContains(t, prompts[0], "var x=1")
}

func TestSummarizedSearch_FallsBackToSnippets(t *testing.T) {
	model := llmtest.New("summary")
	s := NewSummarizedSearch(staticSearcher{{Title: "T", URL: "http://127.0.0.1:1/unreachable", Description: "only the snippet"}}, model)

	out, err := s.Call(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "summary"))
	assert.Contains(t, model.Prompts()[0], "only the snippet")
}

func TestNewSearcher(t *testing.T) {
	s, err := NewSearcher("duckduckgo", "", "", 3)
	require.NoError(t, err)
	assert.IsType(t, &DuckDuckGo{}, s)

	s, err = NewSearcher("brave", "k", "", 3)
	require.NoError(t, err)
	assert.IsType(t, &BraveSearch{}, s)

	_, err = NewSearcher("bing", "", "", 3)
	assert.Error(t, err)
}

func TestResolveDuckDuckGoLink(t *testing.T) {
	target := "https://example.com/a?b=c"
	assert.Equal(t, target, resolveDuckDuckGoLink("//duckduckgo.com/l/?uddg="+url.QueryEscape(target)))
	assert.Equal(t, "https://example.com/x", resolveDuckDuckGoLink("//example.com/x"))
}
