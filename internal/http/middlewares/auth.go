package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/idgate/internal/http/errors"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// TokenVerifier valida una credencial de sesión. *jwt.Issuer lo implementa.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*jwtx.Claims, error)
}

func challenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="idgate", error="invalid_token", error_description="`+desc+`"`)
}

// RequireAuth exige un bearer válido. Los tokens con step-up pendiente pasan;
// las rutas que necesitan la sesión completa agregan RequireFullAuth.
func RequireAuth(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := helpers.BearerToken(r)
			if raw == "" {
				challenge(w, "missing bearer token")
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			claims, err := v.Verify(r.Context(), raw)
			if err != nil {
				if stderrors.Is(err, jwtx.ErrRevocationUnavailable) {
					errors.WriteError(w, errors.ErrServiceUnavailable.WithCause(err))
					return
				}
				// El motivo concreto no se expone.
				challenge(w, "invalid token")
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}
			ctx := WithClaims(r.Context(), claims, raw)
			ctx = logger.WithUser(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireFullAuth rechaza credenciales con step-up pendiente. Va después de RequireAuth.
func RequireFullAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if claims.StepUpPending() {
				errors.WriteError(w, errors.ErrStepUpRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth inyecta claims si hay un bearer válido; si no, sigue sin ellas.
func OptionalAuth(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := helpers.BearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := v.Verify(r.Context(), raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logger.WithUser(WithClaims(r.Context(), claims, raw), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
