// Package social implementa el login con providers OAuth (Google, Facebook).
//
// El flujo es: Start arma la URL de autorización y guarda el state (con el
// PKCE verifier) como artefacto single-use; Callback lo consume, canjea el code
// en el provider, resuelve la identidad y redirige al frontend con un exchange
// code. La credencial nunca viaja en la URL.
package social

import (
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	emailsvc "github.com/dropDatabas3/idgate/internal/http/services/email"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/oauth"
)

type Deps struct {
	Identities  repository.IdentityRepository
	Providers   *oauth.Registry
	Artifacts   *cache.ArtifactStore
	Exchange    session.ExchangeService
	Mailer      emailsvc.Mailer // opcional: email de bienvenida en altas nuevas
	FrontendURL string
	StateTTL    time.Duration
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

type Services struct {
	Login LoginService
}

func NewServices(d Deps) Services {
	return Services{Login: NewLoginService(d)}
}
