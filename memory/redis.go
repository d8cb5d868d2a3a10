package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMemory keeps the conversation window in a Redis list, so context
// survives restarts and can be shared between processes.
type RedisMemory struct {
	client    *redis.Client
	sessionID string
	window    int
	keyPrefix string
}

var _ Manager = (*RedisMemory)(nil)

type RedisMemoryOption func(*RedisMemory)

// WithRedisWindow caps how many messages are kept per session.
func WithRedisWindow(window int) RedisMemoryOption {
	return func(m *RedisMemory) {
		if window > 0 {
			m.window = window
		}
	}
}

// WithRedisKeyPrefix overrides the key prefix, default "plankit:memory:".
func WithRedisKeyPrefix(prefix string) RedisMemoryOption {
	return func(m *RedisMemory) {
		m.keyPrefix = prefix
	}
}

// NewRedisMemory creates a memory over an existing Redis client. Each
// session gets its own list keyed by sessionID.
func NewRedisMemory(client *redis.Client, sessionID string, opts ...RedisMemoryOption) *RedisMemory {
	m := &RedisMemory{
		client:    client,
		sessionID: sessionID,
		window:    20,
		keyPrefix: "plankit:memory:",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RedisMemory) key() string {
	return m.keyPrefix + m.sessionID
}

// AddMessage appends a message and trims the list to the window.
func (m *RedisMemory) AddMessage(ctx context.Context, msg *Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, m.key(), raw)
	pipe.LTrim(ctx, m.key(), int64(-m.window), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	return nil
}

// ContextText renders the remembered window oldest first.
func (m *RedisMemory) ContextText(ctx context.Context, _ string) (string, error) {
	raws, err := m.client.LRange(ctx, m.key(), 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("load messages: %w", err)
	}

	messages := make([]*Message, 0, len(raws))
	for _, raw := range raws {
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			// Skip entries written by incompatible versions.
			continue
		}
		messages = append(messages, &msg)
	}
	return renderMessages(messages), nil
}

// Clear forgets the session.
func (m *RedisMemory) Clear(ctx context.Context) error {
	if err := m.client.Del(ctx, m.key()).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
