package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plankit/plankit/store"
	"github.com/plankit/plankit/task"
)

// RedisRunStore implements store.RunStore using Redis. Records live under
// "<prefix>run:<id>" with a sorted-set index by creation time for List.
type RedisRunStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.RunStore = (*RedisRunStore)(nil)

// RedisOptions configuration for the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "plankit:"
	TTL      time.Duration // Expiration for records, default 0 (no expiration)
}

// NewRedisRunStore creates a run store with its own Redis client.
func NewRedisRunStore(opts RedisOptions) *RedisRunStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisRunStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisRunStoreWithClient wraps an existing client. Useful for tests.
func NewRedisRunStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisRunStore {
	if prefix == "" {
		prefix = "plankit:"
	}
	return &RedisRunStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisRunStore) runKey(id string) string {
	return fmt.Sprintf("%srun:%s", s.prefix, id)
}

func (s *RedisRunStore) indexKey() string {
	return s.prefix + "runs:by-created"
}

// Close closes the underlying client.
func (s *RedisRunStore) Close() error {
	return s.client.Close()
}

// RecordRun stores a run record and indexes it by creation time.
func (s *RedisRunStore) RecordRun(ctx context.Context, rec *task.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.runKey(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, s.indexKey(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run to redis: %w", err)
	}
	return nil
}

// Load retrieves a run record by id.
func (s *RedisRunStore) Load(ctx context.Context, id string) (*task.RunRecord, error) {
	data, err := s.client.Get(ctx, s.runKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("run record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var rec task.RunRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records, newest first.
func (s *RedisRunStore) List(ctx context.Context, limit int) ([]*task.RunRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]*task.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			// Record expired but index entry lingers; drop it.
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a run record and its index entry.
func (s *RedisRunStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.runKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
