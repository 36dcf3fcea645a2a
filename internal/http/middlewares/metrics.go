package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/idgate/internal/metrics"
)

// WithMetrics instrumenta requests con el patrón de ruta de chi como label,
// así los ids en el path no explotan la cardinalidad.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPStart()
			rec := wrap(w)
			defer func() {
				m.HTTPDone(strings.ToUpper(r.Method), routeLabel(r), strconv.Itoa(rec.status), time.Since(start).Seconds())
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
