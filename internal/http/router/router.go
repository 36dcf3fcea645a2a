// Package router arma el árbol de rutas HTTP (chi) y sus middleware chains.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/idgate/internal/http/controllers/auth"
	emailctrl "github.com/dropDatabas3/idgate/internal/http/controllers/email"
	healthctrl "github.com/dropDatabas3/idgate/internal/http/controllers/health"
	mfactrl "github.com/dropDatabas3/idgate/internal/http/controllers/mfa"
	sessionctrl "github.com/dropDatabas3/idgate/internal/http/controllers/session"
	socialctrl "github.com/dropDatabas3/idgate/internal/http/controllers/social"
	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	mw "github.com/dropDatabas3/idgate/internal/http/middlewares"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/rate"
)

// Controllers agrupa los controllers de todos los dominios.
type Controllers struct {
	Auth    *authctrl.Controllers
	Session *sessionctrl.Controllers
	Email   *emailctrl.Controllers
	MFA     *mfactrl.Controllers
	Social  *socialctrl.Controllers
	Health  *healthctrl.Controllers
}

// RateRules son las reglas por grupo de rutas. Una regla en cero desactiva el límite.
type RateRules struct {
	Login  rate.Rule
	Forgot rate.Rule
	OTP    rate.Rule
}

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers Controllers
	Verifier    mw.TokenVerifier
	RateLimiter rate.Limiter // opcional
	Rules       RateRules
	Metrics     *metrics.Metrics // opcional; si ServeMetrics, /metrics se monta aquí
	// ServeMetrics monta /metrics en este handler (sin listener dedicado).
	ServeMetrics bool
}

// New devuelve el handler raíz de la API.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Orden: recover primero para cubrir todo; logging al final para que
	// request_id ya esté en contexto.
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithMetrics(deps.Metrics),
		mw.WithLogging(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerSystemRoutes(r, deps)
	r.Route("/v1", func(r chi.Router) {
		registerAuthRoutes(r, deps)
		registerProfileRoutes(r, deps)
	})
	return r
}

func (d Deps) rateLimit(name string, rule rate.Rule, key mw.RateKeyFunc) mw.Middleware {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Name:    name,
		Limiter: d.RateLimiter,
		Rule:    rule,
		KeyFunc: key,
		Metrics: d.Metrics,
	})
}
