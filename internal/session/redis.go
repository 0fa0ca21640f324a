package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps the session fields in a single Redis hash per profile.
type RedisBackend struct {
	rdb  *redis.Client
	hash string
}

// NewRedisBackend connects to redisURL and verifies the connection.
func NewRedisBackend(ctx context.Context, redisURL, profile string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisBackendFromClient(rdb, profile), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(rdb *redis.Client, profile string) *RedisBackend {
	if profile == "" {
		profile = "default"
	}
	return &RedisBackend{rdb: rdb, hash: "vidfriends:session:" + profile}
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.rdb == nil {
		return "", false, ErrBackendUnavailable
	}
	value, err := b.rdb.HGet(ctx, b.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	if b.rdb == nil {
		return ErrBackendUnavailable
	}
	if err := b.rdb.HSet(ctx, b.hash, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Delete removes the fields from the profile hash.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if b.rdb == nil {
		return ErrBackendUnavailable
	}
	if len(keys) == 0 {
		return nil
	}
	if err := b.rdb.HDel(ctx, b.hash, keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// Close releases the connection.
func (b *RedisBackend) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
