package jwt

import (
	"context"
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
)

// CacheRevocations guarda jti revocados en el store efímero, con TTL igual a la
// vida restante del token: el denylist se limpia solo.
type CacheRevocations struct {
	c cache.Client
}

func NewCacheRevocations(c cache.Client) *CacheRevocations {
	return &CacheRevocations{c: c}
}

func revokedKey(jti string) string { return "revoked:" + jti }

func (r *CacheRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.c.Set(ctx, revokedKey(jti), []byte{1}, ttl)
}

func (r *CacheRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.c.Exists(ctx, revokedKey(jti))
}
