package graph

import "context"

type resumeValueKey struct{}

type threadIDKey struct{}

// WithResumeValue adds a resume value to the context.
// This value will be returned by Interrupt() when re-executing a node.
func WithResumeValue(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, resumeValueKey{}, value)
}

// GetResumeValue retrieves the resume value from the context.
func GetResumeValue(ctx context.Context) any {
	return ctx.Value(resumeValueKey{})
}

// WithThreadID tags the context with the run's thread ID.
func WithThreadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, threadIDKey{}, id)
}

// ThreadID returns the thread ID of the current run, or "".
func ThreadID(ctx context.Context) string {
	id, _ := ctx.Value(threadIDKey{}).(string)
	return id
}
