// Package memory keeps conversation history for agents.
//
// # Core Interface
//
// Every strategy implements Memory:
//
//   - AddMessage: store a new message
//   - GetContext: select the messages to send with the next query
//   - Clear: forget everything
//   - GetStats: report message and token counts
//
// # Strategies
//
// SequentialMemory keeps the whole history. WindowMemory keeps the last k
// messages. TopicMemory recalls the messages that share words with the query.
//
//	mem := memory.NewWindowMemory(10)
//	mem.AddMessage(ctx, memory.NewMessage(memory.RoleUser, "Hello!"))
//	msgs, _ := mem.GetContext(ctx, "How are you?")
//
// All strategies are safe for concurrent use.
//
// # Message Log
//
// Log is an immutable append-only list used inside graph state:
//
//	var log memory.Log
//	log = log.Append("researcher", findings)
//	last, _ := log.Last()
//
// Token counts are estimated with Unicode word segmentation (CountTokens).
package memory
