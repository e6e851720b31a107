package graph

// Config controls a single run of a StateRunnable.
type Config struct {
	// ThreadID identifies the run for checkpointing. Empty means no thread.
	ThreadID string

	// InterruptBefore stops the run before any of these nodes executes.
	InterruptBefore []string

	// InterruptAfter stops the run after any of these nodes completes.
	InterruptAfter []string

	// ResumeFrom replaces the entry point, typically GraphInterrupt.NextNodes.
	ResumeFrom []string

	// ResumeValue is returned by Interrupt inside the resumed nodes.
	ResumeValue any

	// MaxSteps defaults to DefaultMaxSteps.
	MaxSteps int
}

func (c *Config) maxSteps() int {
	if c == nil || c.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return c.MaxSteps
}
