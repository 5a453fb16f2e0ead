package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKV keeps keys in Redis without expiry.
type RedisKV struct {
	client *redis.Client
	logger *zap.Logger
}

var _ KV = (*RedisKV)(nil)

// NewRedisKV wraps an existing client.
func NewRedisKV(client *redis.Client, logger *zap.Logger) *RedisKV {
	return &RedisKV{client: client, logger: logger.Named("RedisKV")}
}

// OpenRedis connects to rawURL (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, rawURL string, logger *zap.Logger) (*RedisKV, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return NewRedisKV(client, logger), nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to read key", zap.String("key", key), zap.Error(err))
		return "", wrap(err, "get "+key)
	}
	return v, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		r.logger.Error("Failed to write key", zap.String("key", key), zap.Error(err))
		return wrap(err, "set "+key)
	}
	r.logger.Debug("Key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return wrap(r.client.Del(ctx, keys...).Err(), "delete keys")
}

func (r *RedisKV) Close() error { return r.client.Close() }
