// Package mfa implementa el step-up por OTP enviado por SMS.
package mfa

import (
	"time"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/sms"
)

type Deps struct {
	Identities repository.IdentityRepository
	Tokens     *session.Tokens
	SMS        sms.Sender
	AppName    string
	OTPTTL     time.Duration
	// SendTimeout acota la espera del proveedor de SMS.
	SendTimeout time.Duration
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

type Services struct {
	StepUp StepUpService
}

func NewServices(d Deps) Services {
	return Services{StepUp: NewStepUpService(d)}
}
