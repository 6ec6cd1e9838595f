package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent
var ErrMiss = errors.New("cache miss")

// Cache stores JSON-encoded values under string keys
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects and pings the server
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("Redis connected", "addr", addr)
	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// DeletePrefix removes every key starting with prefix using SCAN
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Noop never stores anything. Used when redis is disabled.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, interface{}) error { return ErrMiss }

func (Noop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) DeletePrefix(context.Context, string) error { return nil }
