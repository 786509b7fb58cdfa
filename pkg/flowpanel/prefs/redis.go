package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores records in Redis, for editors that share preferences
// across machines.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// Compile-time interface check.
var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend connects to the Redis server at url
// (e.g. "redis://localhost:6379/0") and verifies it with PING.
// A zero ttl keeps records forever.
func NewRedisBackend(ctx context.Context, url string, ttl time.Duration) (*RedisBackend, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisBackend{client: client, ttl: ttl}, nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if errors.Is(err, redis.ErrClosed) {
		return "", ErrBackendClosed
	}
	if err != nil {
		return "", fmt.Errorf("load preference: %w", err)
	}
	return v, nil
}

// Set implements Backend.
func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	err := r.client.Set(ctx, key, value, r.ttl).Err()
	if errors.Is(err, redis.ErrClosed) {
		return ErrBackendClosed
	}
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrBackendClosed
		}
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error {
	err := r.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}
