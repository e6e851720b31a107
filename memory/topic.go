package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/clipperhouse/uax29/words"
)

// TopicMemory links messages that share topics and recalls the messages
// related to a query instead of the plain recent history.
type TopicMemory struct {
	messages []*Message
	// topics maps a topic to the indexes of the messages mentioning it
	topics map[string][]int
	topK   int
	mu     sync.RWMutex

	// Extract returns the topics of a message. Defaults to ExtractTopics.
	Extract func(content string) []string
}

var _ Memory = (*TopicMemory)(nil)

// NewTopicMemory creates a topic memory recalling at most topK messages.
func NewTopicMemory(topK int) *TopicMemory {
	if topK <= 0 {
		topK = DefaultWindowSize
	}
	return &TopicMemory{
		topics:  make(map[string][]int),
		topK:    topK,
		Extract: ExtractTopics,
	}
}

func (t *TopicMemory) AddMessage(ctx context.Context, msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.messages)
	t.messages = append(t.messages, msg)
	for _, topic := range t.Extract(msg.Content) {
		t.topics[topic] = append(t.topics[topic], idx)
	}
	return nil
}

// GetContext returns the messages sharing a topic with query in
// chronological order. The newest matches win when there are more than
// topK. Without any match the most recent messages are returned.
func (t *TopicMemory) GetContext(ctx context.Context, query string) ([]*Message, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[int]bool)
	var hits []int
	for _, topic := range t.Extract(query) {
		for _, idx := range t.topics[topic] {
			if !seen[idx] {
				seen[idx] = true
				hits = append(hits, idx)
			}
		}
	}

	if len(hits) == 0 {
		start := max(0, len(t.messages)-t.topK)
		out := make([]*Message, len(t.messages)-start)
		copy(out, t.messages[start:])
		return out, nil
	}

	slices.Sort(hits)
	if len(hits) > t.topK {
		hits = hits[len(hits)-t.topK:]
	}
	out := make([]*Message, 0, len(hits))
	for _, idx := range hits {
		out = append(out, t.messages[idx])
	}
	return out, nil
}

func (t *TopicMemory) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.topics = make(map[string][]int)
	return nil
}

func (t *TopicMemory) GetStats(ctx context.Context) (*Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := sumTokens(t.messages)
	active := min(t.topK, len(t.messages))
	stats := &Stats{
		TotalMessages:  len(t.messages),
		TotalTokens:    total,
		ActiveMessages: active,
	}
	if len(t.messages) > 0 {
		stats.ActiveTokens = total / len(t.messages) * active
		stats.CompressionRate = float64(active) / float64(len(t.messages))
	}
	return stats, nil
}

// Topics returns every known topic with the number of messages mentioning it.
func (t *TopicMemory) Topics() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.topics))
	for topic, ids := range t.topics {
		out[topic] = len(ids)
	}
	return out
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true, "can": true,
	"do": true, "for": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "me": true, "my": true, "of": true, "on": true, "please": true,
	"tell": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "what": true, "you": true, "your": true, "with": true,
}

// ExtractTopics returns the distinct lower-cased words of content that are
// at least three letters long and not stop words.
func ExtractTopics(content string) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, seg := range words.SegmentAll([]byte(content)) {
		if !isWord(seg) {
			continue
		}
		w := strings.ToLower(string(seg))
		w = strings.TrimSuffix(w, "'s")
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		topics = append(topics, w)
	}
	return topics
}
