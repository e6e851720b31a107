package tool

import (
	"context"
	"fmt"
	"strings"
)

// DateTool answers simple relative date questions.
type DateTool struct {
	Now Clock
}

func (d *DateTool) Name() string { return "date_tool" }

func (d *DateTool) Description() string {
	return "Get date-related information. Input should mention today, tomorrow, yesterday, current month or current year."
}

func (d *DateTool) Call(_ context.Context, input string) (string, error) {
	return d.Answer(input), nil
}

// Answer returns the date text for query.
func (d *DateTool) Answer(query string) string {
	today := now(d.Now)
	const long = "Monday, January 02, 2006"

	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "today"):
		return "Today is " + today.Format(long)
	case strings.Contains(q, "tomorrow"):
		return "Tomorrow will be " + today.AddDate(0, 0, 1).Format(long)
	case strings.Contains(q, "yesterday"):
		return "Yesterday was " + today.AddDate(0, 0, -1).Format(long)
	case strings.Contains(q, "current month"):
		return "The current month is " + today.Format("January 2006")
	case strings.Contains(q, "current year"):
		return fmt.Sprintf("The current year is %d", today.Year())
	}
	return fmt.Sprintf("Unsupported date query: '%s'. Try asking about today, tomorrow, yesterday, current month, or current year.", query)
}
