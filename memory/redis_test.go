package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisMemory(t *testing.T, sessionID string, opts ...RedisMemoryOption) *RedisMemory {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisMemory(client, sessionID, opts...)
}

func TestRedisMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := redisMemory(t, "session-1")

	require.NoError(t, mem.AddMessage(ctx, NewMessage("user", "what is the weather?")))
	require.NoError(t, mem.AddMessage(ctx, NewMessage("assistant", "sunny, 19C")))

	text, err := mem.ContextText(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "user: what is the weather?\nassistant: sunny, 19C", text)
}

func TestRedisMemoryWindowTrimming(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := redisMemory(t, "session-2", WithRedisWindow(2))

	for i := 1; i <= 4; i++ {
		require.NoError(t, mem.AddMessage(ctx, NewMessage("user", fmt.Sprintf("m%d", i))))
	}

	text, err := mem.ContextText(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "user: m3\nuser: m4", text)
}

func TestRedisMemorySessionIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewRedisMemory(client, "a")
	b := NewRedisMemory(client, "b")

	require.NoError(t, a.AddMessage(ctx, NewMessage("user", "only in a")))

	text, err := b.ContextText(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRedisMemoryClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := redisMemory(t, "session-3")

	require.NoError(t, mem.AddMessage(ctx, NewMessage("user", "hi")))
	require.NoError(t, mem.Clear(ctx))

	text, err := mem.ContextText(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, text)
}
