package session

import (
	"context"

	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// LogoutService revoca la credencial presentada. Siempre es best-effort:
// el cliente descarta la credencial de todos modos.
type LogoutService interface {
	Logout(ctx context.Context, claims *jwtx.Claims) error
}

type logoutService struct {
	issuer *jwtx.Issuer
}

func NewLogoutService(issuer *jwtx.Issuer) LogoutService {
	return &logoutService{issuer: issuer}
}

func (s *logoutService) Logout(ctx context.Context, claims *jwtx.Claims) error {
	var sub string
	if claims != nil {
		sub = claims.Subject
	}
	log := logger.ForUser(ctx, sub).With(
		logger.Layer("service"),
		logger.Component("session.logout"),
		logger.Op("Logout"),
	)
	if claims == nil {
		log.Debug("no credential presented, nothing to revoke")
		return nil
	}
	if err := s.issuer.Revoke(ctx, claims); err != nil {
		log.Warn("revoke failed", logger.Err(err))
		return err
	}
	log.Debug("credential revoked")
	return nil
}
