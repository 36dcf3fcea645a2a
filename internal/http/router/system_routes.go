package router

import "github.com/go-chi/chi/v5"

// registerSystemRoutes monta health, readiness, JWKS y opcionalmente /metrics.
func registerSystemRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Health

	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
	r.Get("/.well-known/jwks.json", c.JWKS.JWKS)

	if deps.ServeMetrics && deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}
}
