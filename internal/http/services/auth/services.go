// Package auth contiene los services de identidad con password: registro,
// login y perfil.
package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/security/password"
)

// VerificationSender emite y envía el token de verificación de email.
type VerificationSender interface {
	SendVerification(ctx context.Context, identity *repository.Identity) error
}

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Identities   repository.IdentityRepository
	Hasher       *password.Hasher
	Tokens       *session.Tokens
	Verification VerificationSender // nil: no se envía verificación al registrar
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Profile  ProfileService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	return Services{
		Register: NewRegisterService(d),
		Login:    NewLoginService(d),
		Profile:  NewProfileService(d),
	}
}
