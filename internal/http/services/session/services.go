// Package session contiene los services de credenciales: emisión con step-up,
// canje de exchange codes y logout.
package session

import (
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/metrics"
)

// Deps contiene las dependencias para crear los services session.
type Deps struct {
	Identities  repository.IdentityRepository
	Issuer      *jwtx.Issuer
	Artifacts   *cache.ArtifactStore
	ExchangeTTL time.Duration
	Metrics     *metrics.Metrics
}

// Services agrupa todos los services del dominio session.
type Services struct {
	Tokens   *Tokens
	Exchange ExchangeService
	Logout   LogoutService
}

// NewServices crea el agregador de services session.
func NewServices(d Deps) Services {
	tokens := NewTokens(d.Issuer)
	return Services{
		Tokens: tokens,
		Exchange: NewExchangeService(ExchangeDeps{
			Identities: d.Identities,
			Artifacts:  d.Artifacts,
			Tokens:     tokens,
			TTL:        d.ExchangeTTL,
			Metrics:    d.Metrics,
		}),
		Logout: NewLogoutService(d.Issuer),
	}
}
