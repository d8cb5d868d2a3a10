package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Manager supplies prior-conversation context to the execution engine.
// ContextText returns ready-to-splice prompt text, one "role: content"
// line per remembered message; an empty string means no context.
type Manager interface {
	// AddMessage records a conversation turn.
	AddMessage(ctx context.Context, msg *Message) error

	// ContextText renders remembered turns relevant to the query.
	ContextText(ctx context.Context, query string) (string, error)

	// Clear forgets everything.
	Clear(ctx context.Context) error
}

// renderMessages formats messages as prompt text, oldest first.
func renderMessages(messages []*Message) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
