// Package email contiene los controllers de verificación de email y reseteo
// de password.
package email

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	svc "github.com/dropDatabas3/idgate/internal/http/services/email"
)

// Controllers agrupa todos los controllers del dominio email.
type Controllers struct {
	Flows *FlowsController
}

// NewControllers crea el agregador de controllers email. frontendURL es el
// destino de los redirects del link de verificación.
func NewControllers(s svc.FlowsService, frontendURL string) *Controllers {
	return &Controllers{
		Flows: NewFlowsController(s, frontendURL),
	}
}

func writeFlowsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidOrExpired):
		httperrors.WriteError(w, httperrors.ErrInvalidOrExpired)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrDeliveryFailed):
		httperrors.WriteError(w, httperrors.ErrDeliveryFailed.WithCause(err))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
