package get

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisParam loads one typed value stored under a Redis key.
type RedisParam[T any] struct {
	client redis.UniversalClient
	key    string
}

// Redis returns a Loader for key using client.
func Redis[T any](client redis.UniversalClient, key string) *RedisParam[T] {
	return &RedisParam[T]{client: client, key: key}
}

// Load fetches and converts the value. A missing key is [ErrNotSet].
func (p *RedisParam[T]) Load(ctx context.Context) (T, error) {
	var zero T
	if p.client == nil {
		return zero, errors.New("get: nil redis client")
	}

	raw, err := p.client.Get(ctx, p.key).Result()
	if errors.Is(err, redis.Nil) {
		return zero, fmt.Errorf("%w: %s", ErrNotSet, p.key)
	}
	if err != nil {
		return zero, fmt.Errorf("get: redis %s: %w", p.key, err)
	}

	v, err := convert[T](raw)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", p.key, err)
	}
	return v, nil
}
