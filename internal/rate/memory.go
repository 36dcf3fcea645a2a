package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window en proceso. Sirve para una sola instancia.
type MemoryLimiter struct {
	mu  sync.Mutex
	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{c: gocache.New(time.Minute, 5*time.Minute), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Result, error) {
	if !rule.Enabled() {
		return Result{Allowed: true}, nil
	}
	now := l.now().UTC()
	winStart := now.Truncate(rule.Window)
	k := fmt.Sprintf("%s:%d", normalizeKey(key), winStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()
	// Add falla si la ventana ya existe; en ese caso seguimos con el contador actual.
	_ = l.c.Add(k, int64(0), rule.Window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, err
	}
	return decide(hits, rule, winStart.Add(rule.Window).Sub(now)), nil
}
