package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// State хранит коллекцию одним ключом в redis.
type State struct {
	client goredis.UniversalClient
	key    string
}

func NewState(client goredis.UniversalClient, key string) *State {
	return &State{client: client, key: key}
}

func (s *State) Name() string { return "redis" }

func (s *State) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *State) Read(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return b, nil
}

func (s *State) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
