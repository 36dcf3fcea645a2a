package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/health"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
// Un check nil se reporta como "disabled".
type Deps struct {
	Version    string
	Issuer     *jwtx.Issuer
	DBCheck    func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	response := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}

	critical := false

	// 1) Keystore (crítico): firmar y verificar un token de prueba.
	if s.deps.Issuer != nil {
		response.ActiveKeyID = s.deps.Issuer.Keys.ActiveKID()
		if err := s.checkKeystore(); err != nil {
			response.Components["keystore"] = dto.HealthStatus{Status: "error", Message: err.Error()}
			critical = true
			log.Error("keystore check failed", logger.Err(err))
		} else {
			response.Components["keystore"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["keystore"] = dto.HealthStatus{Status: "error", Message: "issuer not initialized"}
		critical = true
	}

	// 2) Credential store y 3) cache: ambos críticos, sin ellos no hay login.
	for name, check := range map[string]func(context.Context) error{
		"db":    s.deps.DBCheck,
		"cache": s.deps.CacheCheck,
	} {
		if check == nil {
			response.Components[name] = dto.HealthStatus{Status: "disabled", Message: "in-memory"}
			continue
		}
		if err := check(ctx); err != nil {
			response.Components[name] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			critical = true
			log.Error(name+" unavailable", logger.Err(err))
			continue
		}
		response.Components[name] = dto.HealthStatus{Status: "ok"}
	}

	response.Status = "ready"
	if critical {
		response.Status = "unavailable"
	}
	return response
}

func (s *healthService) checkKeystore() error {
	tk, err := s.deps.Issuer.Mint(jwtx.Subject{ID: "healthcheck"}, time.Minute, jwtx.MintOptions{Purpose: "health"})
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	if _, err := s.deps.Issuer.VerifyPurpose(tk.Value, "health"); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}
