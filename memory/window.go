package memory

import (
	"context"
	"sync"
)

// WindowMemory keeps the last N messages in process memory.
// Pros: zero dependencies, predictable size
// Cons: context is lost on restart and not shared between processes
type WindowMemory struct {
	mu       sync.RWMutex
	messages []*Message
	window   int
}

var _ Manager = (*WindowMemory)(nil)

// NewWindowMemory creates a window memory keeping the last window
// messages. A non-positive window defaults to 20.
func NewWindowMemory(window int) *WindowMemory {
	if window <= 0 {
		window = 20
	}
	return &WindowMemory{window: window}
}

// AddMessage appends a message, evicting the oldest beyond the window.
func (w *WindowMemory) AddMessage(_ context.Context, msg *Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, msg)
	if len(w.messages) > w.window {
		w.messages = w.messages[len(w.messages)-w.window:]
	}
	return nil
}

// ContextText renders the remembered messages oldest first. The query is
// ignored; the window is small enough to return whole.
func (w *WindowMemory) ContextText(context.Context, string) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return renderMessages(w.messages), nil
}

// Clear forgets all messages.
func (w *WindowMemory) Clear(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
	return nil
}

// Len returns the number of remembered messages.
func (w *WindowMemory) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}
