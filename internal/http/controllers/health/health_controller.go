package health

import (
	"net/http"

	"github.com/dropDatabas3/idgate/internal/http/helpers"
	svc "github.com/dropDatabas3/idgate/internal/http/services/health"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz: el proceso está vivo.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	response := c.service.Check(ctx)

	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}
	if response.ActiveKeyID != "" {
		w.Header().Set("X-JWKS-KID", response.ActiveKeyID)
	}

	status := http.StatusOK
	if response.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}

	log.Debug("health check completed",
		logger.String("status", response.Status),
		logger.Count(len(response.Components)),
	)
	helpers.WriteJSON(w, status, response)
}

// JWKSController publica las claves públicas de firma para verificadores externos.
type JWKSController struct {
	keys *jwtx.KeySet
}

func NewJWKSController(keys *jwtx.KeySet) *JWKSController {
	return &JWKSController{keys: keys}
}

// JWKS maneja GET /.well-known/jwks.json
func (c *JWKSController) JWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.keys.JWKSJSON())
}
