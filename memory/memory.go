package memory

import (
	"context"
	"time"
	"unicode"

	"github.com/clipperhouse/uax29/words"
	"github.com/google/uuid"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation. Messages are never mutated after
// they are stored.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	// Tokens is an estimate based on word segmentation
	Tokens int `json:"tokens"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
		Tokens:    CountTokens(content),
	}
}

// Stats describes what a memory currently holds.
type Stats struct {
	TotalMessages   int
	TotalTokens     int
	ActiveMessages  int
	ActiveTokens    int
	CompressionRate float64
}

// Memory stores conversation history and selects the context for the next turn.
type Memory interface {
	AddMessage(ctx context.Context, msg *Message) error
	GetContext(ctx context.Context, query string) ([]*Message, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
}

// CountTokens estimates the token count of text as its number of words,
// following Unicode word boundaries. Whitespace and punctuation segments are
// not counted.
func CountTokens(text string) int {
	n := 0
	for _, seg := range words.SegmentAll([]byte(text)) {
		if isWord(seg) {
			n++
		}
	}
	return n
}

func isWord(seg []byte) bool {
	for _, r := range string(seg) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func sumTokens(msgs []*Message) int {
	total := 0
	for _, m := range msgs {
		total += m.Tokens
	}
	return total
}
