// Package tool provides the tools agents and pipelines call.
//
// Every tool implements langchaingo's tools.Tool: a name, a description the
// model reads, and Call(ctx, input) with a plain string input. Tools report
// bad input in their answer text ("Calculation error: division by zero") so
// that an agent can read the failure and recover; a returned error means the
// tool itself could not run, for example a failed HTTP request.
//
// # Local tools
//
//   - Calculator evaluates arithmetic with govaluate.
//   - CurrentTime and DateTool answer questions about the clock.
//   - Weather and Forecast return mock data from a seeded random source.
//   - Wiki looks topics up in a small built-in encyclopedia.
//   - DataAnalysis summarises comma-separated numbers.
//   - Joke tells a joke about a topic.
//
// # Web tools
//
// WebSearch wraps a Searcher. DuckDuckGo scrapes the HTML endpoint with
// goquery and BraveSearch calls the Brave API:
//
//	searcher, err := tool.NewSearcher(cfg.Search.Provider, cfg.Search.BraveAPIKey, "", 5)
//	if err != nil {
//		return err
//	}
//	agent, err := prebuilt.CreateReactAgent(model, []tools.Tool{
//		&tool.Calculator{},
//		&tool.WebSearch{Searcher: searcher},
//		tool.NewSummarizedSearch(searcher, model),
//	})
//
// SummarizedSearch fetches the top hit, converts it to Markdown and asks
// the model for a short summary.
//
// Ad hoc tools can be built from functions with NewFunc and Pure.
package tool
