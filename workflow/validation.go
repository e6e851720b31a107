package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentcases/graph"
)

// StatusRecovered marks a validation failure that was handled.
const StatusRecovered = "recovered"

// MinInputLength is the shortest input, after trimming, that is processed.
const MinInputLength = 3

// ValidationState is the state of the Validation pipeline.
type ValidationState struct {
	Input  string `json:"input_text"`
	Result string `json:"processed_result"`
	Error  string `json:"error,omitempty"`
	Status string `json:"status"`
}

// Validation summarises text, routing input that is too short to an error
// handler instead of the model.
type Validation struct {
	model llms.Model
	opts  options
}

func NewValidation(model llms.Model, opts ...Option) *Validation {
	return &Validation{model: model, opts: newOptions(opts)}
}

// Graph returns validate -> (handle_error | process_text) -> finalize.
func (v *Validation) Graph() *graph.StateGraph[ValidationState] {
	g := graph.NewStateGraph[ValidationState]()
	g.AddNode("validate", "Check the input length", validateInput)
	g.AddNode("process_text", "Summarise the text", v.processText)
	g.AddNode("handle_error", "Substitute a default result", handleError)
	g.AddNode("finalize", "Prefix the result with its status", finalizeResult)

	g.AddConditionalEdge("validate", func(_ context.Context, s ValidationState) string {
		if s.Status == StatusError {
			return "handle_error"
		}
		return "process_text"
	}, "process_text", "handle_error")
	g.AddEdge("process_text", "finalize")
	g.AddEdge("handle_error", "finalize")
	g.AddEdge("finalize", graph.END)
	g.SetEntryPoint("validate")
	return g
}

func (v *Validation) Run(ctx context.Context, input string) (ValidationState, error) {
	return invoke(ctx, v.Graph(), v.opts, ValidationState{Input: input, Status: StatusSuccess})
}

func validateInput(_ context.Context, s ValidationState) (ValidationState, error) {
	if utf8.RuneCountInString(strings.TrimSpace(s.Input)) < MinInputLength {
		s.Error = "Input text is too short or empty"
		s.Status = StatusError
		return s, nil
	}
	s.Status = StatusSuccess
	return s, nil
}

func (v *Validation) processText(ctx context.Context, s ValidationState) (ValidationState, error) {
	out, err := ask(ctx, v.model, fmt.Sprintf("Summarize this text in one sentence: '%s'", s.Input))
	if err != nil {
		return s, err
	}
	s.Result = out
	s.Status = StatusSuccess
	return s, nil
}

func handleError(_ context.Context, s ValidationState) (ValidationState, error) {
	s.Result = "Could not process the input due to validation error. Please provide longer text."
	s.Status = StatusRecovered
	return s, nil
}

func finalizeResult(_ context.Context, s ValidationState) (ValidationState, error) {
	var prefix string
	switch s.Status {
	case StatusRecovered:
		prefix = "[RECOVERED] "
	case StatusError:
		prefix = "[ERROR] "
	}
	result := s.Result
	if result == "" {
		result = "No result available"
	}
	s.Result = prefix + result
	return s, nil
}
