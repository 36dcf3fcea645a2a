package session

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	svc "github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// ExchangeController canjea el código del redirect por la credencial.
type ExchangeController struct {
	service svc.ExchangeService
}

func NewExchangeController(service svc.ExchangeService) *ExchangeController {
	return &ExchangeController{service: service}
}

// Exchange maneja POST /v1/auth/exchange-code
func (c *ExchangeController) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExchangeController.Exchange"))

	var req dto.ExchangeCodeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Redeem(ctx, req.Code)
	if err != nil {
		if errors.Is(err, svc.ErrInvalidOrExpired) {
			httperrors.WriteError(w, httperrors.ErrInvalidOrExpired)
			return
		}
		log.Error("exchange redeem failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
