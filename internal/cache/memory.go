package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client con go-cache. Válido solo para una instancia.
type Memory struct {
	// mu serializa Set/Consume/Delete para que Consume sea get-and-delete atómico.
	mu     sync.Mutex
	c      *gocache.Cache
	prefix string
}

// NewMemory crea un cache en memoria con limpieza periódica cada minuto.
func NewMemory(prefix string) *Memory {
	return &Memory{
		c:      gocache.New(gocache.NoExpiration, time.Minute),
		prefix: prefix,
	}
}

func (m *Memory) key(k string) string { return prefixed(m.prefix, k) }

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v.([]byte)...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	m.mu.Lock()
	m.c.Set(m.key(key), append([]byte(nil), value...), ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Consume(_ context.Context, key string) ([]byte, error) {
	k := m.key(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	m.c.Delete(k)
	return v.([]byte), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	m.c.Delete(m.key(key))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(m.key(key))
	return ok, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
