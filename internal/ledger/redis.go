package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultHeightKey = "veris:ledger:height"

// RedisSource keeps the logical clock in Redis so every instance of the
// service observes the same monotonic sequence. INCR is atomic, which
// is all the monotonicity guarantee needs.
type RedisSource struct {
	client *redis.Client
	key    string
}

// RedisSourceOption configures a RedisSource.
type RedisSourceOption func(*RedisSource)

// WithHeightKey overrides the Redis key holding the clock.
func WithHeightKey(key string) RedisSourceOption {
	return func(s *RedisSource) {
		if key != "" {
			s.key = key
		}
	}
}

func NewRedisSource(client *redis.Client, opts ...RedisSourceOption) *RedisSource {
	s := &RedisSource{
		client: client,
		key:    defaultHeightKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSource) Next(ctx context.Context) (uint64, error) {
	h, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("advance height: %w", err)
	}
	return uint64(h), nil
}

func (s *RedisSource) Current(ctx context.Context) (uint64, error) {
	h, err := s.client.Get(ctx, s.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read height: %w", err)
	}
	return h, nil
}
