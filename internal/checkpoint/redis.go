package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/internal/agent"
)

// RedisStore keeps each snapshot under quarry:run:<id> with a TTL, so
// abandoned runs age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func runKey(runID string) string {
	return "quarry:run:" + runID
}

func (s *RedisStore) Save(ctx context.Context, st *agent.RunState) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}
	if err := s.client.Set(ctx, runKey(st.RunID), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save run %s: %w", st.RunID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, runID string) (*agent.RunState, error) {
	blob, err := s.client.Get(ctx, runKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	var st agent.RunState
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &st, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
