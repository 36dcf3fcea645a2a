// Package session contiene los controllers de credenciales: canje de exchange
// codes, estado de autenticación y logout.
package session

import svc "github.com/dropDatabas3/idgate/internal/http/services/session"

// Controllers agrupa todos los controllers del dominio session.
type Controllers struct {
	Exchange *ExchangeController
	Session  *SessionController
}

// NewControllers crea el agregador de controllers session.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Exchange: NewExchangeController(s.Exchange),
		Session:  NewSessionController(s.Logout),
	}
}
