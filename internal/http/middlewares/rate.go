package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/idgate/internal/http/errors"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey limita por IP del cliente.
func IPRateKey(r *http.Request) string { return helpers.ClientIP(r) }

// UserOrIPRateKey limita por identidad autenticada; sin claims cae a IP.
func UserOrIPRateKey(r *http.Request) string {
	if uid := GetUserID(r.Context()); uid != "" {
		return "u:" + uid
	}
	return "ip:" + helpers.ClientIP(r)
}

// RateLimitConfig configura una regla sobre un grupo de rutas.
type RateLimitConfig struct {
	Name    string // prefijo de la clave y label de métricas
	Limiter rate.Limiter
	Rule    rate.Rule
	KeyFunc RateKeyFunc
	Metrics *metrics.Metrics
}

// WithRateLimit aplica un fixed window. Si el limiter falla, el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil || !cfg.Rule.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.Name+":"+cfg.KeyFunc(r), cfg.Rule)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Component("middleware.rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rule.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				cfg.Metrics.RateLimited(cfg.Name)
				errors.WriteError(w, errors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
