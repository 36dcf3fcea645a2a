// Package auth contiene los controllers de registro, login y perfil.
package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	svc "github.com/dropDatabas3/idgate/internal/http/services/auth"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Profile  *ProfileController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register),
		Login:    NewLoginController(s.Login),
		Profile:  NewProfileController(s.Profile),
	}
}

// ─── Helpers ───

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email inválido"))
	case errors.Is(err, svc.ErrInvalidName):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("nombre inválido"))
	case errors.Is(err, svc.ErrInvalidPhone):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("teléfono inválido, usar formato E.164"))
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrEmailInUse):
		httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrPhoneRequired):
		httperrors.WriteError(w, httperrors.ErrPhoneRequired)
	case errors.Is(err, svc.ErrConcurrentUpdate):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("el perfil fue modificado, reintentá"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
