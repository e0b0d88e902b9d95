package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists state as a single JSON value in Redis.
// Useful when several agents share one deployment and local disk is
// ephemeral.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store from a redis:// URL.
// The state is kept under "llmpool:state:<agentName>".
func NewRedisStore(url, agentName string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		key:    "llmpool:state:" + agentName,
	}, nil
}

// NewRedisStoreWithClient wraps an existing client, used in tests.
func NewRedisStoreWithClient(client *redis.Client, agentName string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "llmpool:state:" + agentName,
	}
}

// Name identifies the backend.
func (s *RedisStore) Name() string {
	return "redis"
}

// Load reads and parses the persisted state.
func (s *RedisStore) Load(ctx context.Context) (*AgentState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var st AgentState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse redis state: %w", err)
	}
	return &st, nil
}

// Save replaces the persisted state.
func (s *RedisStore) Save(ctx context.Context, st *AgentState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
