// Package social contiene los controllers del login con providers OAuth.
package social

import svc "github.com/dropDatabas3/idgate/internal/http/services/social"

// Controllers agrupa todos los controllers del dominio social.
type Controllers struct {
	Login *LoginController
}

// NewControllers crea el agregador de controllers social.
func NewControllers(s svc.Services, frontendURL string) *Controllers {
	return &Controllers{Login: NewLoginController(s.Login, frontendURL)}
}
