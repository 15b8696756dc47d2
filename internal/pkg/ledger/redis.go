package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each ledger under prefix+purpose, so several gateway
// replicas share one quota.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// OpenRedis connects using a redis:// URL.
func OpenRedis(ctx context.Context, rawURL, prefix string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, prefix, logger), nil
}

func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) key(purpose string) string {
	return s.prefix + purpose
}

func (s *RedisStore) Load(ctx context.Context, purpose string) ([]int64, error) {
	data, err := s.client.Get(ctx, s.key(purpose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", purpose, err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, purpose string, timestamps []int64) error {
	data, err := encode(timestamps)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(purpose), data, 0).Err(); err != nil {
		return fmt.Errorf("save ledger %s: %w", purpose, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
