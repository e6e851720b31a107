package memory

import (
	"context"
	"sync"
)

// DefaultWindowSize is used when NewWindowMemory is given a non-positive size.
const DefaultWindowSize = 10

// WindowMemory keeps only the last k messages. Older messages are dropped
// on insert, so the context size stays bounded.
type WindowMemory struct {
	messages []*Message
	size     int
	// evicted counts messages that fell out of the window since the last Clear
	evicted       int
	evictedTokens int
	mu            sync.RWMutex
}

var _ Memory = (*WindowMemory)(nil)

// NewWindowMemory creates a memory holding at most k messages.
func NewWindowMemory(k int) *WindowMemory {
	if k <= 0 {
		k = DefaultWindowSize
	}
	return &WindowMemory{size: k}
}

func (w *WindowMemory) AddMessage(ctx context.Context, msg *Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, msg)
	if over := len(w.messages) - w.size; over > 0 {
		for _, m := range w.messages[:over] {
			w.evicted++
			w.evictedTokens += m.Tokens
		}
		kept := make([]*Message, w.size)
		copy(kept, w.messages[over:])
		w.messages = kept
	}
	return nil
}

// GetContext returns the messages inside the window, oldest first.
func (w *WindowMemory) GetContext(ctx context.Context, query string) ([]*Message, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Message, len(w.messages))
	copy(out, w.messages)
	return out, nil
}

func (w *WindowMemory) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
	w.evicted = 0
	w.evictedTokens = 0
	return nil
}

func (w *WindowMemory) GetStats(ctx context.Context) (*Stats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	active := sumTokens(w.messages)
	total := len(w.messages) + w.evicted
	rate := 1.0
	if total > 0 {
		rate = float64(len(w.messages)) / float64(total)
	}
	return &Stats{
		TotalMessages:   total,
		TotalTokens:     active + w.evictedTokens,
		ActiveMessages:  len(w.messages),
		ActiveTokens:    active,
		CompressionRate: rate,
	}, nil
}

// Size returns the window capacity.
func (w *WindowMemory) Size() int {
	return w.size
}
