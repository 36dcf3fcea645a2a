// Package rate implementa rate limiting fixed-window (Redis o memoria local).
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Rule es un límite de Limit hits por Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) Enabled() bool { return r.Limit > 0 && r.Window > 0 }

// Limiter decide si un hit sobre key entra dentro de rule.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Result, error)
}

// RedisLimiter: fixed window con INCR + EXPIRE NX en la misma transacción.
type RedisLimiter struct {
	client rdb.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client rdb.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (Result, error) {
	if !rule.Enabled() {
		return Result{Allowed: true}, nil
	}
	now := l.now().UTC()
	winStart := now.Truncate(rule.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, normalizeKey(key), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	return decide(incr.Val(), rule, winStart.Add(rule.Window).Sub(now)), nil
}

func decide(hits int64, rule Rule, untilReset time.Duration) Result {
	max := int64(rule.Limit)
	res := Result{Allowed: hits <= max, CurrentHits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = untilReset
		if res.RetryAfter <= 0 {
			res.RetryAfter = rule.Window
		}
	}
	return res
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.TrimSpace(k), " ", "_")
}
