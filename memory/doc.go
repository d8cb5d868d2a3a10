// Package memory provides conversation memory strategies for the
// execution engine.
//
// The Manager interface is the contract: AddMessage records a turn,
// ContextText renders remembered turns as prompt text, Clear forgets.
//
// Two strategies are included:
//
//   - WindowMemory keeps the last N messages in process memory.
//   - RedisMemory keeps the window in a Redis list, shared and durable.
//
// Example:
//
//	mem := memory.NewWindowMemory(20)
//	mem.AddMessage(ctx, memory.NewMessage("user", "Hello!"))
//	text, _ := mem.ContextText(ctx, "next question")
package memory
