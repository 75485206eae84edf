package watermark

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "odoo_etl:last_extract_timestamp"

// RedisStore keeps the watermark under a single string key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Read(ctx context.Context) (string, error) {
	ts, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return Epoch, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return ts, nil
}

func (s *RedisStore) Write(ctx context.Context, ts string) error {
	if err := Validate(ts); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, ts, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
