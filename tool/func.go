package tool

import (
	"context"

	"github.com/tmc/langchaingo/tools"
)

// Func adapts a function to tools.Tool.
type Func struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)
}

var _ tools.Tool = (*Func)(nil)

// NewFunc creates a tool from fn.
func NewFunc(name, description string, fn func(ctx context.Context, input string) (string, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

// Pure creates a tool from a function that cannot fail.
func Pure(name, description string, fn func(input string) string) *Func {
	return NewFunc(name, description, func(_ context.Context, input string) (string, error) {
		return fn(input), nil
	})
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.description }

func (f *Func) Call(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}
