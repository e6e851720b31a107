// Agentcases - agent and workflow demonstrations in Go
//
// Agentcases is a collection of LLM agents and graph pipelines built on a
// small typed state-graph runtime. Every case runs from the agentcases
// command line against any OpenAI-compatible endpoint.
//
// # Quick Start
//
// Install the command:
//
//	go install github.com/smallnest/agentcases/cmd/agentcases@latest
//
// Put the key in the environment or in .env, then run a case:
//
//	export OPENAI_API_KEY=sk-...
//	agentcases calculator
//	agentcases review "Why Go generics matter" --store file
//	agentcases graph parallel --format dot
//
// A pipeline can also be used as a library:
//
//	model, _ := llm.New(config.New().LLM)
//	out, err := workflow.NewBreakdown(model).Run(ctx, "How many golf balls fit in a bus?")
//	fmt.Println(out.FinalAnswer)
//
// # Package Structure
//
// ## graph/
// StateGraph[S] with conditional edges, interrupts, checkpoint listeners,
// Scatter for concurrent fan-out and Mermaid/DOT export.
//
// ## store/
// Checkpoint stores: memory, file, sqlite, redis and postgres. store/backend
// opens one from configuration.
//
// ## prebuilt/
// The ReAct agent (CreateReactAgent) and a ConversationAgent that keeps its
// history in a memory.Memory.
//
// ## memory/
// Sequential, window and topic conversation memories, plus the Log value
// type used by pipelines that record who said what.
//
// ## tool/
// Calculator, clock, date, weather and forecast mocks, jokes, a wiki stub,
// data analysis and web search (DuckDuckGo, Brave) including a search tool
// that reads and summarises the top page.
//
// ## rag/
// Text splitting, a chromem-go vector store with OpenAI or offline hash
// embeddings, and DocumentQA which answers with its sources.
//
// ## workflow/
// Graph pipelines: problem breakdown, complexity routing, iterative
// refinement, a research team, tool planning, input validation, human
// review, parallel research and a versioned document editor.
//
// ## internal/
// Configuration, the model factory, prompt templates, mock catalog and sales
// datasets, console rendering and the command line itself.
//
// # Configuration
//
// Settings come from built-in defaults, agentcases.toml (or a YAML file
// given with --config), .env and the environment, in increasing priority:
//
//   - OPENAI_API_KEY, OPENAI_API_BASE, OPENAI_MODEL
//   - SEARCH_PROVIDER (duckduckgo or brave), BRAVE_API_KEY
//   - STORE_KIND (memory, file, sqlite, redis, postgres), STORE_PATH, STORE_DSN
//   - LOG_LEVEL
package agentcases // import "github.com/smallnest/agentcases"
