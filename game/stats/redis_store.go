package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
)

// DefaultRedisKey is the list key used when none is given
const DefaultRedisKey = "reserve-solitaire:stats:history"

// RedisStore keeps the history in a capped Redis list, oldest at the head
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(ctx context.Context, addr, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client, key), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Append(ctx context.Context, outcome engine.Outcome, max int) error {
	if !validOutcome(outcome) {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome.Outcome)
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if max > 0 {
		pipe.LTrim(ctx, s.key, int64(-max), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]engine.Outcome, error) {
	items, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats history: %w", err)
	}

	history := make([]engine.Outcome, 0, len(items))
	for _, item := range items {
		var o engine.Outcome
		if err := json.Unmarshal([]byte(item), &o); err != nil || !validOutcome(o) {
			logrus.WithField("key", s.key).Warn("skipping malformed stats entry")
			continue
		}
		history = append(history, o)
	}
	return history, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear stats history: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
