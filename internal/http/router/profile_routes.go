package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/idgate/internal/http/middlewares"
)

// registerProfileRoutes registra /v1/profile. Todo exige la sesión completa:
// una credencial con step-up pendiente no ve ni modifica el perfil.
func registerProfileRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Auth.Profile

	r.Route("/profile", func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.RequireAuth(deps.Verifier), mw.RequireFullAuth())

		r.Get("/", c.Get)
		r.Put("/", c.Update)
		r.Get("/login-history", c.LoginHistory)
	})
}
