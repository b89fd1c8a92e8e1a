// Package redis provides a repository.Cache shared by every replica of a
// service through Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// Cache implements repository.Cache on a go-redis client.
type Cache struct {
	client goredis.UniversalClient
	logger zerolog.Logger
}

// New connects to the Redis server described by cfg and pings it.
func New(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("connected to Redis")

	return NewFromClient(client, logger), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client goredis.UniversalClient, logger zerolog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}
	return value, nil
}

// Set stores a value. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}
	return nil
}

// Ping checks that the server answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (c *Cache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

var _ repository.Cache = (*Cache)(nil)
