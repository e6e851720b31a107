package memory

import (
	"context"
	"sync"
)

// SequentialMemory keeps the complete conversation history.
// Simple and lossless, but the context grows without bound.
type SequentialMemory struct {
	messages []*Message
	mu       sync.RWMutex
}

var _ Memory = (*SequentialMemory)(nil)

func NewSequentialMemory() *SequentialMemory {
	return &SequentialMemory{}
}

func (s *SequentialMemory) AddMessage(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// GetContext returns every stored message, oldest first. The query is ignored.
func (s *SequentialMemory) GetContext(ctx context.Context, query string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *SequentialMemory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}

func (s *SequentialMemory) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := sumTokens(s.messages)
	return &Stats{
		TotalMessages:   len(s.messages),
		TotalTokens:     tokens,
		ActiveMessages:  len(s.messages),
		ActiveTokens:    tokens,
		CompressionRate: 1.0,
	}, nil
}
