// Package mfa contiene los controllers del step-up por OTP.
package mfa

import svc "github.com/dropDatabas3/idgate/internal/http/services/mfa"

// Controllers agrupa todos los controllers del dominio mfa.
type Controllers struct {
	StepUp *StepUpController
}

// NewControllers crea el agregador de controllers mfa.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{StepUp: NewStepUpController(s.StepUp)}
}
