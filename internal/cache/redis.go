package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implementa Client sobre go-redis. Consume usa GETDEL (Redis >= 6.2).
type Redis struct {
	client *redis.Client
	prefix string
}

// DialRedis abre la conexión y verifica con PING.
func DialRedis(ctx context.Context, cfg Config) (*Redis, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return NewRedis(rdb, cfg.Prefix), nil
}

// NewRedis envuelve un cliente existente (compartido con el rate limiter).
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{client: rdb, prefix: prefix}
}

// Raw expone el cliente subyacente.
func (c *Redis) Raw() *redis.Client { return c.client }

func (c *Redis) key(k string) string { return prefixed(c.prefix, k) }

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *Redis) Consume(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.GetDel(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Redis) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

func (c *Redis) Close() error { return c.client.Close() }
