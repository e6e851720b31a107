package tool

import (
	"context"
	"time"
)

// CurrentTime reports the local date and time.
type CurrentTime struct {
	Now Clock
}

func (c *CurrentTime) Name() string { return "current_time" }

func (c *CurrentTime) Description() string {
	return "Useful for getting the current date and time. No input is needed."
}

func (c *CurrentTime) Call(_ context.Context, _ string) (string, error) {
	return "Current date and time: " + now(c.Now).Format(time.DateTime), nil
}

func now(c Clock) time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
