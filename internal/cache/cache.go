// Package cache implementa el store efímero clave→valor con TTL.
//
// Backends:
//   - redis: compartido entre instancias; el único válido con más de una réplica.
//   - memory: in-process (go-cache), para dev y tests.
//
// Consume es get-and-delete atómico: ante dos llamadas concurrentes sobre la
// misma key, exactamente una obtiene el valor y la otra recibe ErrNotFound.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones del store efímero.
type Client interface {
	// Get obtiene un valor sin consumirlo. ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor. ttl debe ser > 0: nada vive para siempre en este store.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Consume obtiene y elimina la key atómicamente. ErrNotFound si no existe.
	Consume(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config para construir un Client.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string // host:port
	Password string
	DB       int
	Prefix   string
}

var (
	// ErrNotFound: la key no existe, ya fue consumida o expiró.
	ErrNotFound = errors.New("cache: key not found")

	ErrInvalidTTL = errors.New("cache: ttl must be positive")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea el Client según cfg.Driver.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return DialRedis(ctx, cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
