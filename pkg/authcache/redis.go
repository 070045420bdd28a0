package authcache

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores cache hashes in Redis. Hash keys carry no TTL; entries
// live until an invalidation event clears them.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an existing Redis client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// NewRedisClient creates and pings a Redis client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// HGet returns the value of a hash field, or ErrMiss.
func (b *RedisBackend) HGet(ctx context.Context, key, field string) ([]byte, error) {
	data, err := b.client.HGet(ctx, key, field).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// HSet sets a hash field.
func (b *RedisBackend) HSet(ctx context.Context, key, field string, value []byte) error {
	return b.client.HSet(ctx, key, field, value).Err()
}

// HDel removes a hash field.
func (b *RedisBackend) HDel(ctx context.Context, key, field string) error {
	return b.client.HDel(ctx, key, field).Err()
}

// Del removes the whole hash.
func (b *RedisBackend) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}
