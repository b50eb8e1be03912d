package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "quote:"
	// TTL prevents unbounded memory growth for symbols nobody
	// subscribes to anymore.
	quoteTTL = 1 * time.Hour
)

// Compile-time check to ensure RedisStore implements QuoteStore
var _ QuoteStore = (*RedisStore)(nil)

// RedisStore keeps the latest quote payload per symbol in Redis,
// letting multiple server instances share one snapshot cache.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) SetQuote(ctx context.Context, symbol string, payload []byte) error {
	return r.client.Set(ctx, keyPrefix+symbol, payload, quoteTTL).Err()
}

func (r *RedisStore) GetQuote(ctx context.Context, symbol string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
