package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/idgate/internal/http/middlewares"
)

// registerAuthRoutes registra /v1/auth/*. Todas las respuestas llevan no-store:
// pueden contener credenciales.
func registerAuthRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		// ─── Público ───
		r.Post("/register", c.Auth.Register.Register)
		r.With(deps.rateLimit("login", deps.Rules.Login, mw.IPRateKey)).
			Post("/login", c.Auth.Login.Login)
		r.Post("/exchange-code", c.Session.Exchange.Exchange)
		r.Get("/verify-email", c.Email.Flows.VerifyEmail)
		r.With(deps.rateLimit("forgot", deps.Rules.Forgot, mw.IPRateKey)).
			Post("/forgot-password", c.Email.Flows.ForgotPassword)
		r.Post("/reset-password", c.Email.Flows.ResetPassword)

		// ─── OAuth ───
		r.Get("/{provider}/start", c.Social.Login.Start)
		r.Get("/{provider}/callback", c.Social.Login.Callback)

		// ─── Credencial opcional ───
		r.Group(func(r chi.Router) {
			r.Use(mw.OptionalAuth(deps.Verifier))
			r.Get("/is-authenticated", c.Session.Session.IsAuthenticated)
			r.Post("/logout", c.Session.Session.Logout)
		})

		// ─── Step-up: única parte que acepta una credencial pendiente ───
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Verifier))
			r.With(deps.rateLimit("otp", deps.Rules.OTP, mw.UserOrIPRateKey)).
				Post("/send-otp", c.MFA.StepUp.SendOTP)
			r.With(deps.rateLimit("otp_verify", deps.Rules.OTP, mw.UserOrIPRateKey)).
				Post("/verify-otp", c.MFA.StepUp.VerifyOTP)
		})

		// ─── Sesión completa ───
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Verifier), mw.RequireFullAuth())
			r.Get("/is-verified", c.Auth.Profile.IsVerified)
			r.Post("/resend-verification", c.Email.Flows.ResendVerification)
		})
	})
}
