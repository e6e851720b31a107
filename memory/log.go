package memory

import "github.com/bytedance/sonic"

// Log is an ordered, timestamped, append-only sequence of messages.
// The zero value is an empty log. A Log is a value: Append returns a new log
// and leaves the receiver untouched, so logs can be carried inside graph
// state without copying by hand.
type Log struct {
	entries []Message
}

// Append returns a new log with one more entry. The result never shares its
// backing array with the receiver.
func (l Log) Append(role, content string) Log {
	next := make([]Message, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, *NewMessage(role, content))
	return Log{entries: next}
}

// Entries returns a copy of the entries in append order.
func (l Log) Entries() []Message {
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l Log) Len() int {
	return len(l.entries)
}

// Last returns the newest entry.
func (l Log) Last() (Message, bool) {
	if len(l.entries) == 0 {
		return Message{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// MarshalJSON encodes the log as a plain array so it survives checkpointing.
func (l Log) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return sonic.Marshal(l.entries)
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var entries []Message
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
