// Package health contiene los controllers de liveness, readiness y JWKS.
package health

import (
	svc "github.com/dropDatabas3/idgate/internal/http/services/health"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
)

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Health *HealthController
	JWKS   *JWKSController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(s svc.Services, keys *jwtx.KeySet) *Controllers {
	return &Controllers{
		Health: NewHealthController(s.Health),
		JWKS:   NewJWKSController(keys),
	}
}
